// Package journal persists confirmed exchange actions in an append-only WAL.
package journal

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"

	"rebalancer/internal/domain"
)

const (
	DefaultDir       = "./wal/journal"
	segmentThreshold = 1000
	maxSegments      = 100

	orderKeyPrefix      = "order_"
	depositKeyPrefix    = "deposit_"
	withdrawalKeyPrefix = "withdrawal_"
)

// WALStore is the durable execution journal. Records are keyed by the
// exchange-issued identifier and written only for confirmed actions, so
// replaying a failed run cannot double-count anything.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens (or creates) the journal WAL in dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

// RecordOrder appends a confirmed order placement.
func (s *WALStore) RecordOrder(rec domain.OrderRecord) error {
	if rec.OrderID == "" {
		return errors.New("order record requires an exchange order id")
	}
	return s.append(orderKeyPrefix+rec.OrderID, rec)
}

// RecordDeposit appends a confirmed fiat deposit.
func (s *WALStore) RecordDeposit(rec domain.DepositRecord) error {
	if rec.DepositID == "" {
		return errors.New("deposit record requires an exchange deposit id")
	}
	return s.append(depositKeyPrefix+rec.DepositID, rec)
}

// RecordWithdrawal appends a confirmed crypto withdrawal.
func (s *WALStore) RecordWithdrawal(rec domain.WithdrawalRecord) error {
	if rec.WithdrawalID == "" {
		return errors.New("withdrawal record requires an exchange withdrawal id")
	}
	return s.append(withdrawalKeyPrefix+rec.WithdrawalID, rec)
}

// WithdrawnTotals sums all historical withdrawal amounts per currency. The
// balance aggregator uses it to account for funds already moved off-exchange.
func (s *WALStore) WithdrawnTotals() (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]decimal.Decimal)
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, withdrawalKeyPrefix) {
			continue
		}

		var rec domain.WithdrawalRecord
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			return nil, errors.Wrapf(err, "decode withdrawal record %s", msg.Key)
		}
		totals[rec.Currency] = totals[rec.Currency].Add(rec.Amount)
	}

	return totals, nil
}

func (s *WALStore) append(key string, rec any) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("marshal journal record %s", key))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
