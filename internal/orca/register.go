package orca

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
)

// LegacyPoolConfig represents a pool entry in the JSON config
type LegacyPoolConfig struct {
	Name           string `json:"name"`
	ProgramID      string `json:"program_id"`
	SwapAccount    string `json:"swap_account"`
	Authority      string `json:"authority"`
	TokenMintA     string `json:"token_mint_a"`
	TokenMintB     string `json:"token_mint_b"`
	VaultA         string `json:"vault_a"`
	VaultB         string `json:"vault_b"`
	PoolMint       string `json:"pool_mint"`
	FeeAccount     string `json:"fee_account"`
	HostFeeAccount string `json:"host_fee_account,omitempty"`
	FeeNumerator   uint64 `json:"fee_numerator"`
	FeeDenominator uint64 `json:"fee_denominator"`
}

// LegacyPool represents a parsed, ready-to-use pool configuration
type LegacyPool struct {
	Name           string
	ProgramID      solana.PublicKey
	SwapAccount    solana.PublicKey
	Authority      solana.PublicKey
	TokenMintA     solana.PublicKey
	TokenMintB     solana.PublicKey
	VaultA         solana.PublicKey
	VaultB         solana.PublicKey
	PoolMint       solana.PublicKey
	FeeAccount     solana.PublicKey
	HostFeeAccount *solana.PublicKey
	FeeNumerator   uint64
	FeeDenominator uint64
}

func (p *LegacyPool) Fee() LegacyFee {
	return LegacyFee{Numerator: p.FeeNumerator, Denominator: p.FeeDenominator}
}

// Registry holds the pools the AMM backend may trade against.
type Registry struct {
	pools []Pool
}

// DevnetWhirlpool is the built-in devnet SOL/USDC pool. Mint order here is
// only used for lookup; swap direction comes from the decoded account.
func DevnetWhirlpool() Pool {
	return Pool{
		Name:       "SOL/USDC whirlpool (devnet)",
		Kind:       KindWhirlpool,
		ProgramID:  solana.MustPublicKeyFromBase58(WhirlpoolProgramID),
		Address:    solana.MustPublicKeyFromBase58(constants.DevnetSOLUSDCWhirlpool),
		TokenMintA: solana.MustPublicKeyFromBase58(constants.SOLMint),
		TokenMintB: solana.MustPublicKeyFromBase58(constants.USDCMintDevnet),
	}
}

// NewRegistry returns the built-in whirlpool plus any legacy pools listed in
// legacyConfigPath. An empty path skips the file.
func NewRegistry(legacyConfigPath string) (*Registry, error) {
	r := &Registry{pools: []Pool{DevnetWhirlpool()}}
	if legacyConfigPath == "" {
		return r, nil
	}

	legacy, err := LoadLegacyPoolsFromJSON(legacyConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pools: %w", err)
	}
	for i := range legacy {
		r.Add(FromLegacy(&legacy[i]))
	}
	return r, nil
}

// FromLegacy wraps a legacy pool as a registry entry.
func FromLegacy(lp *LegacyPool) Pool {
	return Pool{
		Name:       lp.Name,
		Kind:       KindLegacy,
		ProgramID:  lp.ProgramID,
		Address:    lp.SwapAccount,
		TokenMintA: lp.TokenMintA,
		TokenMintB: lp.TokenMintB,
		Legacy:     lp,
	}
}

// Add registers p. Later entries never shadow earlier ones on lookup.
func (r *Registry) Add(p Pool) {
	r.pools = append(r.pools, p)
}

// LoadLegacyPoolsFromJSON reads and parses pool configurations
func LoadLegacyPoolsFromJSON(path string) ([]LegacyPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var configs []LegacyPoolConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	pools := make([]LegacyPool, 0, len(configs))
	for i, cfg := range configs {
		pool, err := parsePoolConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("pool %d (%s): %w", i, cfg.Name, err)
		}
		pools = append(pools, pool)
	}

	return pools, nil
}

func parsePoolConfig(cfg LegacyPoolConfig) (LegacyPool, error) {
	if cfg.FeeDenominator == 0 {
		return LegacyPool{}, fmt.Errorf("fee_denominator must be > 0")
	}
	if cfg.FeeNumerator >= cfg.FeeDenominator {
		return LegacyPool{}, fmt.Errorf("fee_numerator must be < fee_denominator")
	}

	var perr error
	key := func(field, v string) solana.PublicKey {
		if perr != nil {
			return solana.PublicKey{}
		}
		pk, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			perr = fmt.Errorf("%s: %w", field, err)
		}
		return pk
	}

	pool := LegacyPool{
		Name:           cfg.Name,
		ProgramID:      key("program_id", cfg.ProgramID),
		SwapAccount:    key("swap_account", cfg.SwapAccount),
		Authority:      key("authority", cfg.Authority),
		TokenMintA:     key("token_mint_a", cfg.TokenMintA),
		TokenMintB:     key("token_mint_b", cfg.TokenMintB),
		VaultA:         key("vault_a", cfg.VaultA),
		VaultB:         key("vault_b", cfg.VaultB),
		PoolMint:       key("pool_mint", cfg.PoolMint),
		FeeAccount:     key("fee_account", cfg.FeeAccount),
		FeeNumerator:   cfg.FeeNumerator,
		FeeDenominator: cfg.FeeDenominator,
	}
	if cfg.HostFeeAccount != "" {
		hostFee := key("host_fee_account", cfg.HostFeeAccount)
		pool.HostFeeAccount = &hostFee
	}
	if perr != nil {
		return LegacyPool{}, perr
	}

	return pool, nil
}

// FindPoolByMints searches for a pool matching the given token pair in
// either direction.
func (r *Registry) FindPoolByMints(mintA, mintB solana.PublicKey) (*Pool, error) {
	for i := range r.pools {
		pool := &r.pools[i]
		if (pool.TokenMintA.Equals(mintA) && pool.TokenMintB.Equals(mintB)) ||
			(pool.TokenMintA.Equals(mintB) && pool.TokenMintB.Equals(mintA)) {
			return pool, nil
		}
	}
	return nil, fmt.Errorf("%w for mints %s / %s", ErrPoolNotFound, mintA, mintB)
}

// FindPoolByName searches for a pool by its name
func (r *Registry) FindPoolByName(name string) (*Pool, error) {
	for i := range r.pools {
		if r.pools[i].Name == name {
			return &r.pools[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, name)
}

func (r *Registry) Pools() []Pool {
	return r.pools
}

func (r *Registry) Names() []string {
	return lo.Map(r.pools, func(p Pool, _ int) string { return p.Name })
}

func (r *Registry) PoolCount() int {
	return len(r.pools)
}
