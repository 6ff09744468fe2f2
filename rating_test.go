package rating_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/rating"
	"github.com/xraph/rating/account"
	"github.com/xraph/rating/carrier"
	"github.com/xraph/rating/customer"
	"github.com/xraph/rating/id"
	"github.com/xraph/rating/pricelist"
	"github.com/xraph/rating/store/memory"
)

const testTenant = "t1"

func newTestEngine(t *testing.T, opts ...rating.Option) *rating.Engine {
	t.Helper()
	quiet := rating.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return rating.New(memory.New(), append([]rating.Option{quiet}, opts...)...)
}

func mustCarrier(t *testing.T, e *rating.Engine, tag string, active bool) {
	t.Helper()
	_, err := e.UpsertCarrier(context.Background(), &carrier.Carrier{
		Tenant:     testTenant,
		CarrierTag: tag,
		Host:       tag + ".example.net",
		Port:       5060,
		Protocol:   carrier.ProtocolUDP,
		Active:     active,
	})
	if err != nil {
		t.Fatalf("UpsertCarrier(%s): %v", tag, err)
	}
}

func mustPriceList(t *testing.T, e *rating.Engine, tag string) {
	t.Helper()
	_, err := e.UpsertPriceList(context.Background(), &pricelist.PriceList{
		Tenant:       testTenant,
		PricelistTag: tag,
		Name:         tag,
		Currency:     pricelist.CurrencyEUR,
	})
	if err != nil {
		t.Fatalf("UpsertPriceList(%s): %v", tag, err)
	}
}

func mustRate(t *testing.T, e *rating.Engine, pricelistTag, carrierTag, prefix string, perIncrement int64, active bool) {
	t.Helper()
	_, err := e.UpsertRate(context.Background(), &pricelist.Rate{
		Tenant:        testTenant,
		PricelistTag:  pricelistTag,
		CarrierTag:    carrierTag,
		Prefix:        prefix,
		Active:        active,
		Rate:          perIncrement,
		RateIncrement: 60,
	})
	if err != nil {
		t.Fatalf("UpsertRate(%s/%s/%s): %v", pricelistTag, carrierTag, prefix, err)
	}
}

func mustAccount(t *testing.T, e *rating.Engine, tag string, balance int64, tags []string) {
	t.Helper()
	_, err := e.UpsertAccount(context.Background(), &account.Account{
		Tenant:     testTenant,
		AccountTag: tag,
		Name:       tag,
		Type:       account.TypePrepaid,
		Active:     true,
		Balance:    balance,
		Tags:       tags,
	})
	if err != nil {
		t.Fatalf("UpsertAccount(%s): %v", tag, err)
	}
}

func accountBalance(t *testing.T, e *rating.Engine, tag string) int64 {
	t.Helper()
	a, err := e.GetAccount(context.Background(), id.Nil, testTenant, tag)
	if err != nil {
		t.Fatalf("GetAccount(%s): %v", tag, err)
	}
	return a.Balance
}

func TestResolveDestinationRate(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	mustCarrier(t, e, "c-a", true)
	mustCarrier(t, e, "c-b", true)
	mustPriceList(t, e, "retail")
	mustPriceList(t, e, "wholesale")

	mustRate(t, e, "retail", "c-a", "39", 100, true)
	mustRate(t, e, "retail", "c-a", "3933", 250, true)
	mustRate(t, e, "retail", "c-b", "3933", 50, false)
	mustRate(t, e, "wholesale", "c-b", "39", 10, true)

	tests := []struct {
		name            string
		pricelistTags   []string
		carrierTags     []string
		carrierOverride []string
		destination     string
		wantPrefix      string
		wantRate        int64
		wantNil         bool
	}{
		{
			name:          "Longest prefix beats cheaper shorter one",
			pricelistTags: []string{"retail"},
			destination:   "39331234567",
			wantPrefix:    "3933",
			wantRate:      250,
		},
		{
			name:          "Inactive rate is invisible",
			pricelistTags: []string{"retail", "wholesale"},
			destination:   "39331234567",
			wantPrefix:    "3933",
			wantRate:      250,
		},
		{
			name:          "Falls back to shorter prefix",
			pricelistTags: []string{"retail"},
			destination:   "3955667788",
			wantPrefix:    "39",
			wantRate:      100,
		},
		{
			name:        "Equal prefix length picks the cheaper rate",
			destination: "3955667788",
			wantPrefix:  "39",
			wantRate:    10,
		},
		{
			name:            "Carrier override replaces base tags",
			carrierTags:     []string{"c-a"},
			carrierOverride: []string{"c-b"},
			destination:     "3955667788",
			wantPrefix:      "39",
			wantRate:        10,
		},
		{
			name:        "Carrier tags restrict candidates",
			carrierTags: []string{"c-a"},
			destination: "3955667788",
			wantPrefix:  "39",
			wantRate:    100,
		},
		{
			name:        "No matching prefix",
			destination: "7788",
			wantNil:     true,
		},
		{
			name:        "Empty destination",
			destination: "",
			wantNil:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ResolveDestinationRate(ctx, testTenant, tt.pricelistTags, tt.carrierTags, tt.carrierOverride, tt.destination)
			if err != nil {
				t.Fatalf("ResolveDestinationRate: %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("got rate %s/%s, want none", got.Prefix, got.CarrierTag)
				}
				return
			}
			if got == nil {
				t.Fatalf("got no rate, want prefix %q", tt.wantPrefix)
			}
			if got.Prefix != tt.wantPrefix || got.Rate != tt.wantRate {
				t.Errorf("got prefix %q rate %d, want prefix %q rate %d", got.Prefix, got.Rate, tt.wantPrefix, tt.wantRate)
			}
		})
	}
}

func TestResolveDestinationRateTieBreaks(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	mustCarrier(t, e, "aaa", true)
	mustCarrier(t, e, "zzz", true)
	mustPriceList(t, e, "p0")
	mustPriceList(t, e, "p1")

	// Same prefix and rate everywhere; only the natural keys differ.
	mustRate(t, e, "p1", "zzz", "44", 100, true)
	mustRate(t, e, "p1", "aaa", "44", 100, true)
	mustRate(t, e, "p0", "aaa", "44", 100, true)

	got, err := e.ResolveDestinationRate(ctx, testTenant, nil, nil, nil, "442071234")
	if err != nil {
		t.Fatalf("ResolveDestinationRate: %v", err)
	}
	if got == nil {
		t.Fatal("got no rate")
	}
	if got.CarrierTag != "aaa" || got.PricelistTag != "p0" {
		t.Errorf("got %s/%s, want aaa/p0", got.CarrierTag, got.PricelistTag)
	}
}

func TestResolveAccountRate(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	mustCarrier(t, e, "c-a", true)
	mustCarrier(t, e, "c-b", true)
	mustPriceList(t, e, "retail")
	mustRate(t, e, "retail", "c-a", "39", 100, true)
	mustRate(t, e, "retail", "c-b", "39", 200, true)

	_, err := e.UpsertAccount(ctx, &account.Account{
		Tenant:              testTenant,
		AccountTag:          "acme-pbx",
		Active:              true,
		PricelistTags:       []string{"retail"},
		CarrierTags:         []string{"c-a"},
		CarrierTagsOverride: []string{"c-b"},
	})
	if err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}

	got, err := e.ResolveAccountRate(ctx, testTenant, "acme-pbx", "3933123")
	if err != nil {
		t.Fatalf("ResolveAccountRate: %v", err)
	}
	if got == nil {
		t.Fatal("got no rate")
	}
	if got.CarrierTag != "c-b" {
		t.Errorf("carrier override ignored: got carrier %q, want c-b", got.CarrierTag)
	}

	if _, err := e.ResolveAccountRate(ctx, testTenant, "missing", "3933123"); !rating.IsNotFound(err) {
		t.Errorf("unknown account: got %v, want not-found", err)
	}
}

func TestLeastCostRouting(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	mustCarrier(t, e, "alpha", true)
	mustCarrier(t, e, "beta", true)
	mustCarrier(t, e, "idle", false)
	mustCarrier(t, e, "temp", true)
	mustPriceList(t, e, "lcr")

	mustRate(t, e, "lcr", "alpha", "49", 120, true)
	mustRate(t, e, "lcr", "beta", "49", 80, true)
	mustRate(t, e, "lcr", "idle", "49", 10, true)
	mustRate(t, e, "lcr", "temp", "49", 5, true)
	mustRate(t, e, "lcr", "alpha", "491", 500, true)

	// A rate may outlive its carrier.
	if _, err := e.DeleteCarrier(ctx, id.Nil, testTenant, "temp"); err != nil {
		t.Fatalf("DeleteCarrier: %v", err)
	}

	t.Run("Cheapest first, inactive and missing carriers dropped", func(t *testing.T) {
		routes, err := e.LeastCostRouting(ctx, testTenant, nil, nil, "4930111222")
		if err != nil {
			t.Fatalf("LeastCostRouting: %v", err)
		}
		want := []string{"beta", "alpha"}
		if len(routes) != len(want) {
			t.Fatalf("got %d routes, want %d", len(routes), len(want))
		}
		for i, w := range want {
			if routes[i].CarrierTag != w {
				t.Errorf("route[%d]: got %q, want %q", i, routes[i].CarrierTag, w)
			}
		}
	})

	t.Run("Carrier appears once per matching rate", func(t *testing.T) {
		routes, err := e.LeastCostRouting(ctx, testTenant, nil, nil, "4915777")
		if err != nil {
			t.Fatalf("LeastCostRouting: %v", err)
		}
		want := []string{"beta", "alpha", "alpha"}
		if len(routes) != len(want) {
			t.Fatalf("got %d routes, want %d", len(routes), len(want))
		}
		for i, w := range want {
			if routes[i].CarrierTag != w {
				t.Errorf("route[%d]: got %q, want %q", i, routes[i].CarrierTag, w)
			}
		}
	})

	t.Run("No candidates", func(t *testing.T) {
		routes, err := e.LeastCostRouting(ctx, testTenant, nil, nil, "7000")
		if err != nil {
			t.Fatalf("LeastCostRouting: %v", err)
		}
		if len(routes) != 0 {
			t.Errorf("got %d routes, want 0", len(routes))
		}
	})
}

func TestBeginTransaction(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	mustAccount(t, e, "acct-1", 100, nil)

	t.Run("Unknown account is not an error", func(t *testing.T) {
		got, err := e.BeginTransaction(ctx, testTenant, "missing", &account.RunningTransaction{TransactionTag: "call-x"})
		if err != nil {
			t.Fatalf("BeginTransaction: %v", err)
		}
		if got != nil {
			t.Errorf("got transaction %q, want none", got.TransactionTag)
		}
	})

	t.Run("Empty tag rejected", func(t *testing.T) {
		_, err := e.BeginTransaction(ctx, testTenant, "acct-1", &account.RunningTransaction{})
		if !rating.IsValidation(err) {
			t.Errorf("got %v, want validation error", err)
		}
	})

	t.Run("Begin stamps status and begin time", func(t *testing.T) {
		got, err := e.BeginTransaction(ctx, testTenant, "acct-1", &account.RunningTransaction{
			TransactionTag: "call-1",
			Destination:    "3933123",
		})
		if err != nil {
			t.Fatalf("BeginTransaction: %v", err)
		}
		if got.Status != account.TransactionBegun {
			t.Errorf("status: got %q, want %q", got.Status, account.TransactionBegun)
		}
		if got.TimestampBegin.IsZero() {
			t.Error("TimestampBegin not set")
		}
	})

	t.Run("Duplicate tag rejected", func(t *testing.T) {
		_, err := e.BeginTransaction(ctx, testTenant, "acct-1", &account.RunningTransaction{TransactionTag: "call-1"})
		if !errors.Is(err, rating.ErrTransactionExists) {
			t.Errorf("got %v, want ErrTransactionExists", err)
		}
	})
}

func TestTransactionCommitAndRollback(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	mustAccount(t, e, "acct-1", 100, nil)

	if _, err := e.BeginTransaction(ctx, testTenant, "acct-1", &account.RunningTransaction{TransactionTag: "call-1"}); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}

	ended, err := e.EndTransaction(ctx, testTenant, "acct-1", "call-1", time.Time{})
	if err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}
	if ended.Status != account.TransactionEnded || ended.TimestampEnd == nil {
		t.Fatalf("end: got status %q end %v", ended.Status, ended.TimestampEnd)
	}

	committed, err := e.CommitTransaction(ctx, testTenant, "acct-1", "call-1", 10)
	if err != nil {
		t.Fatalf("CommitTransaction: %v", err)
	}
	if !committed {
		t.Fatal("commit: got false, want true")
	}
	if got := accountBalance(t, e, "acct-1"); got != 90 {
		t.Errorf("balance after commit: got %d, want 90", got)
	}

	// The entry is gone, so a second commit must not charge again.
	committed, err = e.CommitTransaction(ctx, testTenant, "acct-1", "call-1", 10)
	if err != nil {
		t.Fatalf("CommitTransaction: %v", err)
	}
	if committed {
		t.Error("second commit: got true, want false")
	}
	if got := accountBalance(t, e, "acct-1"); got != 90 {
		t.Errorf("balance after second commit: got %d, want 90", got)
	}

	if _, err := e.BeginTransaction(ctx, testTenant, "acct-1", &account.RunningTransaction{TransactionTag: "call-2"}); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	rolledBack, err := e.RollbackTransaction(ctx, testTenant, "acct-1", "call-2")
	if err != nil {
		t.Fatalf("RollbackTransaction: %v", err)
	}
	if !rolledBack {
		t.Fatal("rollback: got false, want true")
	}
	if got := accountBalance(t, e, "acct-1"); got != 90 {
		t.Errorf("balance after rollback: got %d, want 90", got)
	}
	rolledBack, err = e.RollbackTransaction(ctx, testTenant, "acct-1", "call-2")
	if err != nil {
		t.Fatalf("RollbackTransaction: %v", err)
	}
	if rolledBack {
		t.Error("second rollback: got true, want false")
	}

	// Ending a transaction that is not running is not an error either.
	gone, err := e.EndTransaction(ctx, testTenant, "acct-1", "call-2", time.Now())
	if err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}
	if gone != nil {
		t.Errorf("end of rolled-back transaction: got %v, want nil", gone)
	}
}

func TestConcurrentCommitChargesOnce(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	mustAccount(t, e, "acct-1", 100, nil)

	if _, err := e.BeginTransaction(ctx, testTenant, "acct-1", &account.RunningTransaction{TransactionTag: "race"}); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			committed, err := e.CommitTransaction(ctx, testTenant, "acct-1", "race", 25)
			if err != nil {
				t.Errorf("CommitTransaction: %v", err)
				return
			}
			if committed {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("winning commits: got %d, want 1", got)
	}
	if got := accountBalance(t, e, "acct-1"); got != 75 {
		t.Errorf("balance: got %d, want 75", got)
	}
}

func TestSettleTransaction(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	mustAccount(t, e, "acct-1", 1000, nil)

	begin := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshot := &pricelist.Rate{ConnectFee: 10, Rate: 60, RateIncrement: 60}

	if _, err := e.BeginTransaction(ctx, testTenant, "acct-1", &account.RunningTransaction{
		TransactionTag:  "call-1",
		Destination:     "3933123",
		DestinationRate: snapshot,
		TimestampBegin:  begin,
	}); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}

	t.Run("Settle before end rejected", func(t *testing.T) {
		_, _, err := e.SettleTransaction(ctx, testTenant, "acct-1", "call-1", "eur")
		if !rating.IsValidation(err) {
			t.Errorf("got %v, want validation error", err)
		}
	})

	if _, err := e.EndTransaction(ctx, testTenant, "acct-1", "call-1", begin.Add(90*time.Second)); err != nil {
		t.Fatalf("EndTransaction: %v", err)
	}

	t.Run("Fee comes from the snapshot", func(t *testing.T) {
		fee, committed, err := e.SettleTransaction(ctx, testTenant, "acct-1", "call-1", "eur")
		if err != nil {
			t.Fatalf("SettleTransaction: %v", err)
		}
		if !committed {
			t.Fatal("got committed=false, want true")
		}
		// 90s at 60 per minute rounds up to two increments plus connect fee.
		if fee.Amount != 130 || fee.Currency != "eur" {
			t.Errorf("fee: got %d %s, want 130 eur", fee.Amount, fee.Currency)
		}
		if got := accountBalance(t, e, "acct-1"); got != 870 {
			t.Errorf("balance: got %d, want 870", got)
		}
	})

	t.Run("Unknown transaction settles to nothing", func(t *testing.T) {
		fee, committed, err := e.SettleTransaction(ctx, testTenant, "acct-1", "missing", "eur")
		if err != nil {
			t.Fatalf("SettleTransaction: %v", err)
		}
		if committed || fee.Amount != 0 {
			t.Errorf("got committed=%v fee=%d, want false 0", committed, fee.Amount)
		}
	})

	t.Run("No snapshot commits for free", func(t *testing.T) {
		if _, err := e.BeginTransaction(ctx, testTenant, "acct-1", &account.RunningTransaction{
			TransactionTag: "call-2",
			TimestampBegin: begin,
		}); err != nil {
			t.Fatalf("BeginTransaction: %v", err)
		}
		if _, err := e.EndTransaction(ctx, testTenant, "acct-1", "call-2", begin.Add(time.Minute)); err != nil {
			t.Fatalf("EndTransaction: %v", err)
		}
		fee, committed, err := e.SettleTransaction(ctx, testTenant, "acct-1", "call-2", "eur")
		if err != nil {
			t.Fatalf("SettleTransaction: %v", err)
		}
		if !committed || fee.Amount != 0 {
			t.Errorf("got committed=%v fee=%d, want true 0", committed, fee.Amount)
		}
		if got := accountBalance(t, e, "acct-1"); got != 870 {
			t.Errorf("balance: got %d, want 870", got)
		}
	})
}

func TestBalanceOperations(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	mustAccount(t, e, "a1", 0, []string{"gold"})
	mustAccount(t, e, "a2", 0, []string{"silver"})
	mustAccount(t, e, "a3", 0, []string{"gold", "silver"})

	matched, err := e.SetBalance(ctx, testTenant, "", []string{"gold"}, 500)
	if err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	if !matched {
		t.Fatal("SetBalance: got matched=false, want true")
	}
	for tag, want := range map[string]int64{"a1": 500, "a2": 0, "a3": 500} {
		if got := accountBalance(t, e, tag); got != want {
			t.Errorf("%s balance: got %d, want %d", tag, got, want)
		}
	}

	matched, err = e.IncrementBalance(ctx, testTenant, "", []string{"silver"}, -100)
	if err != nil {
		t.Fatalf("IncrementBalance: %v", err)
	}
	if !matched {
		t.Fatal("IncrementBalance: got matched=false, want true")
	}
	for tag, want := range map[string]int64{"a1": 500, "a2": -100, "a3": 400} {
		if got := accountBalance(t, e, tag); got != want {
			t.Errorf("%s balance: got %d, want %d", tag, got, want)
		}
	}

	matched, err = e.SetBalance(ctx, testTenant, "a2", nil, 50)
	if err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	if !matched {
		t.Fatal("SetBalance by tag: got matched=false, want true")
	}
	if got := accountBalance(t, e, "a2"); got != 50 {
		t.Errorf("a2 balance: got %d, want 50", got)
	}

	matched, err = e.SetBalance(ctx, testTenant, "missing", nil, 1)
	if err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	if matched {
		t.Error("SetBalance on unknown account: got matched=true, want false")
	}
}

func TestUpsertRateValidation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	mustCarrier(t, e, "c1", true)
	mustPriceList(t, e, "p1")

	tests := []struct {
		name string
		rate pricelist.Rate
	}{
		{"Empty prefix", pricelist.Rate{Tenant: testTenant, PricelistTag: "p1", CarrierTag: "c1"}},
		{"Prefix too long", pricelist.Rate{Tenant: testTenant, PricelistTag: "p1", CarrierTag: "c1", Prefix: "1234567890"}},
		{"Unknown price list", pricelist.Rate{Tenant: testTenant, PricelistTag: "nope", CarrierTag: "c1", Prefix: "39"}},
		{"Unknown carrier", pricelist.Rate{Tenant: testTenant, PricelistTag: "p1", CarrierTag: "nope", Prefix: "39"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.rate
			if _, err := e.UpsertRate(ctx, &r); !rating.IsValidation(err) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}

	t.Run("Valid rate gets its references stamped", func(t *testing.T) {
		got, err := e.UpsertRate(ctx, &pricelist.Rate{
			Tenant: testTenant, PricelistTag: "p1", CarrierTag: "c1", Prefix: "39", Active: true,
		})
		if err != nil {
			t.Fatalf("UpsertRate: %v", err)
		}
		if got.PricelistID.IsNil() || got.CarrierID.IsNil() {
			t.Errorf("references not stamped: pricelist_id=%s carrier_id=%s", got.PricelistID, got.CarrierID)
		}
	})
}

func TestUpsertAccountCustomerReference(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.UpsertAccount(ctx, &account.Account{
		Tenant: testTenant, AccountTag: "a1", CustomerTag: "nope",
	})
	if !rating.IsValidation(err) {
		t.Fatalf("unknown customer: got %v, want validation error", err)
	}

	if _, err := e.UpsertCustomer(ctx, &customer.Customer{Tenant: testTenant, CustomerTag: "cust-1"}); err != nil {
		t.Fatalf("UpsertCustomer: %v", err)
	}
	if _, err := e.UpsertAccount(ctx, &account.Account{
		Tenant: testTenant, AccountTag: "a1", CustomerTag: "cust-1",
	}); err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
}

func TestLookupAddressing(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	mustAccount(t, e, "a1", 0, nil)

	t.Run("Neither id nor tag", func(t *testing.T) {
		if _, err := e.GetAccount(ctx, id.Nil, testTenant, ""); !errors.Is(err, rating.ErrAmbiguousLookup) {
			t.Errorf("got %v, want ErrAmbiguousLookup", err)
		}
	})

	t.Run("Partial natural key", func(t *testing.T) {
		if _, err := e.GetRate(ctx, id.Nil, testTenant, "p1", "", "39"); !errors.Is(err, rating.ErrAmbiguousLookup) {
			t.Errorf("got %v, want ErrAmbiguousLookup", err)
		}
	})

	t.Run("By tag then by id", func(t *testing.T) {
		byTag, err := e.GetAccount(ctx, id.Nil, testTenant, "a1")
		if err != nil {
			t.Fatalf("GetAccount by tag: %v", err)
		}
		byID, err := e.GetAccount(ctx, byTag.ID, "", "")
		if err != nil {
			t.Fatalf("GetAccount by id: %v", err)
		}
		if byID.AccountTag != "a1" {
			t.Errorf("got tag %q, want a1", byID.AccountTag)
		}
	})
}

func TestDefaultTenant(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, rating.WithDefaultTenant("acme"))

	stored, err := e.UpsertAccount(ctx, &account.Account{AccountTag: "a1"})
	if err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
	if stored.Tenant != "acme" {
		t.Errorf("tenant: got %q, want acme", stored.Tenant)
	}

	got, err := e.GetAccount(ctx, id.Nil, "", "a1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.ID.String() != stored.ID.String() {
		t.Errorf("got account %s, want %s", got.ID, stored.ID)
	}
}

func TestStaleTransactionListing(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, rating.WithStaleTransactionAge(time.Hour))
	mustAccount(t, e, "old", 0, nil)
	mustAccount(t, e, "fresh", 0, nil)
	mustAccount(t, e, "quiet", 0, nil)

	if _, err := e.BeginTransaction(ctx, testTenant, "old", &account.RunningTransaction{
		TransactionTag: "stuck",
		TimestampBegin: time.Now().UTC().Add(-2 * time.Hour),
	}); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if _, err := e.BeginTransaction(ctx, testTenant, "fresh", &account.RunningTransaction{
		TransactionTag: "live",
	}); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}

	running, err := e.ListAccountsWithRunningTransactions(ctx, testTenant)
	if err != nil {
		t.Fatalf("ListAccountsWithRunningTransactions: %v", err)
	}
	if len(running) != 2 {
		t.Errorf("running: got %d accounts, want 2", len(running))
	}

	stale, err := e.ListAccountsWithStaleTransactions(ctx, testTenant)
	if err != nil {
		t.Fatalf("ListAccountsWithStaleTransactions: %v", err)
	}
	if len(stale) != 1 || stale[0].AccountTag != "old" {
		tags := make([]string, 0, len(stale))
		for _, a := range stale {
			tags = append(tags, a.AccountTag)
		}
		t.Errorf("stale: got %v, want [old]", tags)
	}
}
