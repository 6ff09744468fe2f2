package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/rating"
	"github.com/xraph/rating/account"
	"github.com/xraph/rating/pricelist"
)

func TestUpsertAccountPreservesRunningTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.UpsertAccount(ctx, &account.Account{Tenant: "t1", AccountTag: "a1", Balance: 100}); err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
	if _, err := s.BeginTransaction(ctx, "t1", "a1", &account.RunningTransaction{TransactionTag: "call-1"}); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}

	// An administrative update must not wipe the running list.
	updated, err := s.UpsertAccount(ctx, &account.Account{Tenant: "t1", AccountTag: "a1", Name: "renamed", Balance: 100})
	if err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
	if len(updated.RunningTransactions) != 1 || updated.RunningTransactions[0].TransactionTag != "call-1" {
		t.Errorf("running transactions not preserved: %+v", updated.RunningTransactions)
	}
	if updated.Name != "renamed" {
		t.Errorf("name: got %q, want renamed", updated.Name)
	}
}

func TestBeginTransactionErrors(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.BeginTransaction(ctx, "t1", "a1", &account.RunningTransaction{TransactionTag: "x"}); !errors.Is(err, rating.ErrAccountNotFound) {
		t.Errorf("unknown account: got %v, want ErrAccountNotFound", err)
	}

	if _, err := s.UpsertAccount(ctx, &account.Account{Tenant: "t1", AccountTag: "a1"}); err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
	if _, err := s.BeginTransaction(ctx, "t1", "a1", &account.RunningTransaction{TransactionTag: "x"}); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if _, err := s.BeginTransaction(ctx, "t1", "a1", &account.RunningTransaction{TransactionTag: "x"}); !errors.Is(err, rating.ErrTransactionExists) {
		t.Errorf("duplicate tag: got %v, want ErrTransactionExists", err)
	}
}

func TestFindRatesOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()

	seed := []pricelist.Rate{
		{Tenant: "t1", PricelistTag: "p1", CarrierTag: "zz", Prefix: "39", Rate: 10, Active: true},
		{Tenant: "t1", PricelistTag: "p1", CarrierTag: "aa", Prefix: "3933", Rate: 90, Active: true},
		{Tenant: "t1", PricelistTag: "p1", CarrierTag: "bb", Prefix: "3933", Rate: 40, Active: true},
		{Tenant: "t1", PricelistTag: "p1", CarrierTag: "cc", Prefix: "3933", Rate: 40, Active: false},
		{Tenant: "t2", PricelistTag: "p1", CarrierTag: "aa", Prefix: "39", Rate: 1, Active: true},
	}
	for i := range seed {
		if _, err := s.UpsertRate(ctx, &seed[i]); err != nil {
			t.Fatalf("UpsertRate: %v", err)
		}
	}

	got, err := s.FindRates(ctx, pricelist.RateQuery{
		Tenant:   "t1",
		Prefixes: pricelist.PrefixCandidates("39331234"),
	})
	if err != nil {
		t.Fatalf("FindRates: %v", err)
	}

	// Longest prefix first, then rate, then carrier tag. The inactive
	// rate and the other tenant never show up.
	want := []struct {
		prefix  string
		carrier string
	}{
		{"3933", "bb"},
		{"3933", "aa"},
		{"39", "zz"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rates, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Prefix != w.prefix || got[i].CarrierTag != w.carrier {
			t.Errorf("rate[%d]: got %s/%s, want %s/%s", i, got[i].Prefix, got[i].CarrierTag, w.prefix, w.carrier)
		}
	}
}

func TestCommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.UpsertAccount(ctx, &account.Account{Tenant: "t1", AccountTag: "a1", Balance: 50}); err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
	if _, err := s.BeginTransaction(ctx, "t1", "a1", &account.RunningTransaction{
		TransactionTag: "call-1",
		TimestampBegin: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}

	ok, err := s.CommitTransaction(ctx, "t1", "a1", "call-1", 20)
	if err != nil || !ok {
		t.Fatalf("CommitTransaction: ok=%v err=%v", ok, err)
	}

	a, err := s.GetAccountByTag(ctx, "t1", "a1")
	if err != nil {
		t.Fatalf("GetAccountByTag: %v", err)
	}
	if a.Balance != 30 {
		t.Errorf("balance: got %d, want 30", a.Balance)
	}
	if len(a.RunningTransactions) != 0 {
		t.Errorf("running transactions still present: %+v", a.RunningTransactions)
	}

	ok, err = s.CommitTransaction(ctx, "t1", "a1", "call-1", 20)
	if err != nil {
		t.Fatalf("CommitTransaction: %v", err)
	}
	if ok {
		t.Error("second commit: got true, want false")
	}
}

func TestPingAfterClose(t *testing.T) {
	s := New()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, rating.ErrStoreClosed) {
		t.Errorf("Ping after close: got %v, want ErrStoreClosed", err)
	}
}
