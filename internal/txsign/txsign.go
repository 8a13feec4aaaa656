// Package txsign turns the transaction values returned by swap backends into
// one signable envelope and signs it.
package txsign

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrUnrecognizedShape is returned when no signable transaction can be found.
var ErrUnrecognizedShape = errors.New("unrecognized transaction shape")

// Kind is the wire format of a transaction.
type Kind int

const (
	Legacy Kind = iota + 1
	Versioned
)

func (k Kind) String() string {
	switch k {
	case Legacy:
		return "legacy"
	case Versioned:
		return "versioned"
	default:
		return "unknown"
	}
}

// Envelope is the normalized form every backend hands to the signer.
type Envelope struct {
	Kind Kind
	Tx   *solana.Transaction
}

// TxWrapper is implemented by build results that expose the transaction as tx.
type TxWrapper interface {
	WrappedTx() *solana.Transaction
}

// TransactionWrapper is implemented by results that expose it as transaction.
type TransactionWrapper interface {
	WrappedTransaction() *solana.Transaction
}

// Wrapped is a plain holder for either field.
type Wrapped struct {
	Tx          *solana.Transaction `json:"tx,omitempty"`
	Transaction *solana.Transaction `json:"transaction,omitempty"`
}

func (w Wrapped) WrappedTx() *solana.Transaction          { return w.Tx }
func (w Wrapped) WrappedTransaction() *solana.Transaction { return w.Transaction }

// Normalize locates the transaction inside v. Shapes are checked in order:
// envelope, versioned, legacy, wrapper.tx, wrapper.transaction.
func Normalize(v any) (Envelope, error) {
	switch t := v.(type) {
	case Envelope:
		if t.Tx == nil {
			return Envelope{}, fmt.Errorf("%w: empty envelope", ErrUnrecognizedShape)
		}
		return fromTx(t.Tx), nil
	case *Envelope:
		if t == nil || t.Tx == nil {
			return Envelope{}, fmt.Errorf("%w: empty envelope", ErrUnrecognizedShape)
		}
		return fromTx(t.Tx), nil
	case *solana.Transaction:
		if t == nil {
			return Envelope{}, fmt.Errorf("%w: nil transaction", ErrUnrecognizedShape)
		}
		return fromTx(t), nil
	}

	if w, ok := v.(TxWrapper); ok && w.WrappedTx() != nil {
		return fromTx(w.WrappedTx()), nil
	}
	if w, ok := v.(TransactionWrapper); ok && w.WrappedTransaction() != nil {
		return fromTx(w.WrappedTransaction()), nil
	}

	return Envelope{}, fmt.Errorf("%w: %T", ErrUnrecognizedShape, v)
}

func fromTx(tx *solana.Transaction) Envelope {
	if tx.Message.IsVersioned() {
		return Envelope{Kind: Versioned, Tx: tx}
	}
	return Envelope{Kind: Legacy, Tx: tx}
}

// Sign normalizes v and signs it with key. Every required signer other than
// key must already be present or signing fails.
func Sign(v any, key solana.PrivateKey) (Envelope, error) {
	env, err := Normalize(v)
	if err != nil {
		return Envelope{}, err
	}

	pub := key.PublicKey()
	if _, err := env.Tx.Sign(func(k solana.PublicKey) *solana.PrivateKey {
		if k.Equals(pub) {
			return &key
		}
		return nil
	}); err != nil {
		return Envelope{}, fmt.Errorf("failed to sign %s transaction: %w", env.Kind, err)
	}

	if len(env.Tx.Signatures) == 0 {
		return Envelope{}, fmt.Errorf("failed to sign %s transaction: no signatures", env.Kind)
	}
	return env, nil
}

// Signature returns the fee payer signature, which is the transaction id.
func (e Envelope) Signature() solana.Signature {
	if e.Tx == nil || len(e.Tx.Signatures) == 0 {
		return solana.Signature{}
	}
	return e.Tx.Signatures[0]
}

// Encode returns the base64 wire form.
func Encode(e Envelope) (string, error) {
	raw, err := e.Tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
