package main

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/mr-tron/base58"

	"solana-strategy-lab/internal/backtest"
	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/normalize"
	"solana-strategy-lab/internal/observability"
	"solana-strategy-lab/internal/provider"
	"solana-strategy-lab/internal/strategy"
)

// Demo data covers a fixed ten-minute window so repeated runs produce
// identical results.
const (
	fixtureBaseMs     = int64(1_748_736_000_000) // 2025-06-01T00:00:00Z
	fixtureSpanMs     = int64(10 * 60 * 1000)
	fixtureSolPrice   = 150.0
	fixtureTokenCount = 3
)

// fixtureWindow returns the demo data time range.
func fixtureWindow() (int64, int64) {
	return fixtureBaseMs, fixtureBaseMs + fixtureSpanMs
}

// fixtureTokens generates deterministic raw records, replays them
// through a stub history provider and the normalizer, and assembles
// per-token timelines. Returns the timelines and the count of records
// dropped during normalization.
func fixtureTokens(strat *strategy.Strategy) ([]backtest.TokenData, int) {
	history := provider.NewStubHistory()
	history.Load(fixtureRecords()...)

	startMs, endMs := fixtureWindow()
	normalizer := normalize.New()

	var (
		tokens  []backtest.TokenData
		skipped int
	)
	ctx := context.Background()
	for i, addr := range history.Tokens() {
		swaps, _ := history.RawSwaps(ctx, addr, startMs, endMs)
		pools, _ := history.PoolSnapshots(ctx, addr, startMs, endMs)

		// Graduation tracking needs the token's records in time order.
		records := append(append([]*normalize.RawRecord{}, swaps...), pools...)
		sort.SliceStable(records, func(a, b int) bool {
			return records[a].TimestampMs < records[b].TimestampMs
		})

		batch := normalizer.NormalizeBatch(records)
		skipped += batch.Skipped
		for reason, count := range batch.Reasons {
			for j := 0; j < count; j++ {
				observability.RecordParseError("fixture", reason)
			}
		}

		events := batch.Events[:0]
		for _, ev := range batch.Events {
			if strat.TradesVenue(ev.Venue) {
				events = append(events, ev)
			}
		}

		tokens = append(tokens, backtest.TokenData{
			Token:    addr,
			Metadata: fixtureMetadata(addr, i),
			Trades:   events,
			Pools:    batch.Pools,
		})
	}
	return tokens, skipped
}

func fixtureMetadata(addr string, i int) *domain.TokenMetadata {
	name := fmt.Sprintf("Demo Token %d", i+1)
	symbol := fmt.Sprintf("DEMO%d", i+1)
	supply := 1_000_000_000.0
	return &domain.TokenMetadata{
		TokenAddress: addr,
		Name:         &name,
		Symbol:       &symbol,
		Decimals:     6,
		// Tokens launch five minutes before the window so age
		// conditions in the minute range can pass.
		CreatedAtMs: fixtureBaseMs - 5*60*1000,
		TotalSupply: &supply,
	}
}

// fixtureRecords builds raw swap and pool records for three tokens: a
// pump.fun launch with accelerating buy pressure, a quieter pump.fun
// token, and a raydium_cpmm pool with mixed flow.
func fixtureRecords() []*normalize.RawRecord {
	var records []*normalize.RawRecord
	var sigSeq uint64

	sig := func() string {
		sigSeq++
		return fixtureSignature(sigSeq)
	}

	for ti := 0; ti < fixtureTokenCount; ti++ {
		token := fixtureTokenAddress(ti)
		venue := domain.VenuePumpFun
		if ti == 2 {
			venue = domain.VenueRaydiumCPMM
		}

		// Pool snapshots every 15 seconds with rising depth.
		for step := int64(0); step <= fixtureSpanMs/15_000; step++ {
			ts := fixtureBaseMs + step*15_000
			growth := float64(step) / float64(fixtureSpanMs/15_000)
			price := 0.000015 * (1 + growth*6)
			liquidity := 8_000 + growth*32_000
			rec := &normalize.RawRecord{
				Kind:         normalize.RawKindPool,
				Venue:        venue,
				Signature:    sig(),
				TimestampMs:  ts,
				BlockSlot:    300_000_000 + step*30,
				Success:      true,
				TokenAddress: token,
				LiquidityUSD: liquidity,
				MarketCap:    15_000 + growth*105_000,
				Price:        price,
				ReserveQuote: liquidity / 2,
				ReserveBase:  liquidity / 2 / price,
			}
			if venue == domain.VenuePumpFun {
				rec.CumulativeUSD = 2_000 + growth*28_000
			}
			records = append(records, rec)
		}

		// Swaps every 5 seconds. The first token ramps up hard, the
		// second stays thin, the third alternates sides.
		for step := int64(0); step < fixtureSpanMs/5_000; step++ {
			ts := fixtureBaseMs + step*5_000 + 500
			side := domain.SideBuy
			if ti == 2 && step%3 == 2 {
				side = domain.SideSell
			}
			if ti == 1 && step%4 != 0 {
				continue
			}

			quoteUSD := 250.0 + float64(step%7)*120
			if ti == 0 && step > 40 {
				quoteUSD *= 4 // large buys late in the window
			}
			quoteRaw := uint64(quoteUSD / fixtureSolPrice * 1e9)

			records = append(records, &normalize.RawRecord{
				Kind:           normalize.RawKindSwap,
				Venue:          venue,
				Signature:      sig(),
				TimestampMs:    ts,
				BlockSlot:      300_000_000 + step*10,
				Success:        true,
				Side:           side,
				TokenAddress:   token,
				WalletAddress:  fixtureWallet(ti, step%9),
				AmountTokenRaw: quoteRaw * 60,
				AmountQuoteRaw: quoteRaw,
				TokenDecimals:  6,
				SolPriceUSD:    fixtureSolPrice,
			})
		}
	}
	return records
}

// fixtureTokenAddress derives a stable 32-byte mint address.
func fixtureTokenAddress(i int) string {
	var raw [32]byte
	binary.BigEndian.PutUint64(raw[:8], uint64(i)+1)
	for j := 8; j < len(raw); j++ {
		raw[j] = byte(i*31 + j)
	}
	return base58.Encode(raw[:])
}

// fixtureWallet derives a wallet pubkey from a fixed seed. Wallet
// validation requires a point on the ed25519 curve, so the key is
// generated rather than synthesized byte-by-byte.
func fixtureWallet(token int, slot int64) string {
	var seed [ed25519.SeedSize]byte
	binary.BigEndian.PutUint64(seed[:8], uint64(token)*100+uint64(slot)+1)
	priv := ed25519.NewKeyFromSeed(seed[:])
	return base58.Encode(priv.Public().(ed25519.PublicKey))
}

func fixtureSignature(seq uint64) string {
	var raw [64]byte
	binary.BigEndian.PutUint64(raw[:8], seq)
	for j := 8; j < len(raw); j++ {
		raw[j] = byte(seq) + byte(j)
	}
	return base58.Encode(raw[:])
}
