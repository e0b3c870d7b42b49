package indexer

import (
	"errors"
	"fmt"

	"LPQuant/internal/domain/models"
	"LPQuant/pkg/config"
	"LPQuant/pkg/util"
)

// PoolSet maps normalized pool ids to their pricing info.
type PoolSet map[string]models.PoolInfo

// PoolsFromConfig builds a PoolSet from the configured pools, optionally
// restricted to the given ids.
func PoolsFromConfig(pools []config.PoolConfig, only ...string) PoolSet {
	keep := make(map[string]bool, len(only))
	for _, id := range only {
		keep[util.NormalizeHexID(id)] = true
	}
	out := make(PoolSet, len(pools))
	for _, p := range pools {
		id := util.NormalizeHexID(p.PoolID)
		if len(keep) > 0 && !keep[id] {
			continue
		}
		out[id] = models.PoolInfo{
			DecimalsA:   p.DecimalsA,
			DecimalsB:   p.DecimalsB,
			InvertPrice: p.InvertPrice,
		}
	}
	return out
}

// ParseSwapEvent prices one swap event. It returns nil without error when
// the event belongs to a pool outside the set.
func ParseSwapEvent(node models.EventNode, pools PoolSet) (*models.Swap, error) {
	raw, _ := node.JSON["pool"].(string)
	poolID := util.NormalizeHexID(raw)
	if poolID == "" {
		return nil, nil
	}
	info, ok := pools[poolID]
	if !ok {
		return nil, nil
	}

	sqrtPrice, err := bigFromAny(node.JSON["after_sqrt_price"])
	if err != nil {
		return nil, fmt.Errorf("after_sqrt_price: %w", err)
	}
	amountIn, err := bigFromAny(node.JSON["amount_in"])
	if err != nil {
		return nil, fmt.Errorf("amount_in: %w", err)
	}
	amountOut, err := bigFromAny(node.JSON["amount_out"])
	if err != nil {
		return nil, fmt.Errorf("amount_out: %w", err)
	}
	atob, err := boolFromAny(node.JSON["atob"])
	if err != nil {
		return nil, fmt.Errorf("atob: %w", err)
	}

	price := SqrtPriceX64ToPrice(sqrtPrice, info.DecimalsA, info.DecimalsB)
	if info.InvertPrice && price > 0 {
		price = 1 / price
	}

	// amount_in is denominated in the input coin
	var volA, volB float64
	if atob {
		volA = scaleAmount(amountIn, info.DecimalsA)
		volB = scaleAmount(amountOut, info.DecimalsB)
	} else {
		volA = scaleAmount(amountOut, info.DecimalsA)
		volB = scaleAmount(amountIn, info.DecimalsB)
	}

	return &models.Swap{
		TxDigest:     node.TxDigest,
		EventSeq:     node.EventSeq,
		PoolID:       poolID,
		TimestampMs:  node.Timestamp,
		Price:        price,
		VolumeA:      volA,
		VolumeB:      volB,
		AtoB:         atob,
		SqrtPriceX64: sqrtPrice.String(),
	}, nil
}

// ParsePage parses every event of a page, skipping unknown pools. Malformed
// events are skipped too; their errors are joined into the returned error
// alongside the swaps that did parse.
func ParsePage(page *models.EventPage, pools PoolSet) ([]*models.Swap, error) {
	if page == nil {
		return nil, nil
	}
	out := make([]*models.Swap, 0, len(page.Nodes))
	var errs []error
	for _, n := range page.Nodes {
		s, err := ParseSwapEvent(n, pools)
		if err != nil {
			errs = append(errs, fmt.Errorf("event %s#%d: %w", n.TxDigest, n.EventSeq, err))
			continue
		}
		if s != nil {
			out = append(out, s)
		}
	}
	return out, errors.Join(errs...)
}
