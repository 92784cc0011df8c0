package strategy

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"solana-strategy-lab/internal/domain"
)

// document mirrors the on-disk strategy shape (YAML or JSON). Unknown
// keys anywhere in the document are decode errors, so a misspelled or
// unsupported condition kind fails fast instead of being silently
// ignored.
type document struct {
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Venues      []string `mapstructure:"venues"`

	Conditions conditionsDoc `mapstructure:"conditions"`
	Exits      exitsDoc      `mapstructure:"exits"`

	PositionSizeUSD float64 `mapstructure:"position_size_usd"`
	MaxPositions    int     `mapstructure:"max_positions"`
}

type conditionsDoc struct {
	TokenAge struct {
		Enabled  bool    `mapstructure:"enabled"`
		Operator string  `mapstructure:"operator"`
		Value    float64 `mapstructure:"value"`
		Unit     string  `mapstructure:"unit"`
	} `mapstructure:"token_age"`

	Liquidity     thresholdDoc `mapstructure:"liquidity"`
	MarketCap     thresholdDoc `mapstructure:"market_cap"`
	VolumeWindow  windowedDoc  `mapstructure:"volume_window"`
	BuyPressure   windowedDoc  `mapstructure:"buy_pressure"`
	UniqueWallets windowedDoc  `mapstructure:"unique_wallets"`

	LargeBuys struct {
		Enabled       bool    `mapstructure:"enabled"`
		MinCount      int     `mapstructure:"min_count"`
		MinAmount     float64 `mapstructure:"min_amount"`
		WindowSeconds int     `mapstructure:"window_seconds"`
	} `mapstructure:"large_buys"`
}

type thresholdDoc struct {
	Enabled  bool    `mapstructure:"enabled"`
	Operator string  `mapstructure:"operator"`
	Value    float64 `mapstructure:"value"`
}

type windowedDoc struct {
	Enabled       bool    `mapstructure:"enabled"`
	Operator      string  `mapstructure:"operator"`
	Value         float64 `mapstructure:"value"`
	WindowSeconds int     `mapstructure:"window_seconds"`
}

type exitsDoc struct {
	StopLossPct     float64 `mapstructure:"stop_loss_pct"`
	TakeProfitPct   float64 `mapstructure:"take_profit_pct"`
	TrailingEnabled bool    `mapstructure:"trailing_enabled"`
	TrailingPct     float64 `mapstructure:"trailing_pct"`
	MaxHoldSeconds  int64   `mapstructure:"max_hold_seconds"`
}

// Load reads and validates a strategy document from path. The format is
// inferred from the file extension (yaml, yml or json).
func Load(path string) (*Strategy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read strategy %s: %w", path, err)
	}
	return decode(v)
}

// LoadString decodes a strategy document from an in-memory string,
// mainly for tests and embedded defaults.
func LoadString(format, doc string) (*Strategy, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(strings.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("read strategy: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Strategy, error) {
	var doc document
	if err := v.UnmarshalExact(&doc); err != nil {
		return nil, fmt.Errorf("decode strategy: %w", err)
	}

	s := &Strategy{
		Name:            doc.Name,
		Description:     doc.Description,
		Venues:          doc.Venues,
		Conditions:      doc.Conditions.tree(),
		PositionSizeUSD: doc.PositionSizeUSD,
		MaxPositions:    doc.MaxPositions,
		Exits: domain.ExitRules{
			StopLossPct:     doc.Exits.StopLossPct,
			TakeProfitPct:   doc.Exits.TakeProfitPct,
			TrailingEnabled: doc.Exits.TrailingEnabled,
			TrailingPct:     doc.Exits.TrailingPct,
			MaxHoldSeconds:  doc.Exits.MaxHoldSeconds,
		},
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *conditionsDoc) tree() domain.ConditionTree {
	return domain.ConditionTree{
		TokenAge: domain.AgeCondition{
			Enabled:  c.TokenAge.Enabled,
			Operator: domain.Operator(c.TokenAge.Operator),
			Value:    c.TokenAge.Value,
			Unit:     c.TokenAge.Unit,
		},
		Liquidity:     c.Liquidity.threshold(),
		MarketCap:     c.MarketCap.threshold(),
		VolumeWindow:  c.VolumeWindow.windowed(),
		BuyPressure:   c.BuyPressure.windowed(),
		UniqueWallets: c.UniqueWallets.windowed(),
		LargeBuys: domain.LargeBuysCondition{
			Enabled:       c.LargeBuys.Enabled,
			MinCount:      c.LargeBuys.MinCount,
			MinAmount:     c.LargeBuys.MinAmount,
			WindowSeconds: c.LargeBuys.WindowSeconds,
		},
	}
}

func (d thresholdDoc) threshold() domain.ThresholdCondition {
	return domain.ThresholdCondition{
		Enabled:  d.Enabled,
		Operator: domain.Operator(d.Operator),
		Value:    d.Value,
	}
}

func (d windowedDoc) windowed() domain.WindowedCondition {
	return domain.WindowedCondition{
		Enabled:       d.Enabled,
		Operator:      domain.Operator(d.Operator),
		Value:         d.Value,
		WindowSeconds: d.WindowSeconds,
	}
}
