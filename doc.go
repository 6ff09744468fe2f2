// Package rating provides a multi-tenant telephony rating and ledger
// engine for Go applications.
//
// Rating is designed as a library, not a service. Import it directly into
// your Go application and wire it to a store backend. It provides:
//
//   - Prefix-based destination rate resolution across price lists
//   - Least-cost routing across carriers
//   - A per-account transaction ledger with atomic begin/end/commit/rollback
//   - Bulk balance maintenance scoped by tenant, account tag and tags
//   - Customer, seller, invoice and archived-transaction records
//   - A plugin hook system for transaction and rating lifecycle events
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/rating"
//	    "github.com/xraph/rating/store/memory"
//	)
//
//	engine := rating.New(memory.New())
//
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// # Core Concepts
//
// Rates belong to a price list, reference a carrier and match a
// destination by its longest stored prefix (at most nine characters):
//
//	rate, err := engine.ResolveDestinationRate(ctx, "tenant",
//	    []string{"default"}, []string{"carrier1"}, nil, "3939001234567")
//	if rate == nil {
//	    // no prefix matched; this is not an error
//	}
//
// Accounts hold a balance in integer minor units and a list of running
// transactions. A call moves through begin, end and then either commit
// (one atomic update charges the fee and removes the entry) or rollback:
//
//	txn, err := engine.BeginTransaction(ctx, "tenant", "acct1",
//	    &account.RunningTransaction{TransactionTag: "call-42", Destination: "3939001234567"})
//	_, err = engine.EndTransaction(ctx, "tenant", "acct1", "call-42", time.Now())
//	ok, err := engine.CommitTransaction(ctx, "tenant", "acct1", "call-42", fee)
//
// Least-cost routing lists the carriers able to reach a destination,
// cheapest first:
//
//	carriers, err := engine.LeastCostRouting(ctx, "tenant", tags, nil, "3939001234567")
//
// # Concurrency
//
// Every ledger mutation is a single atomic conditional update in the
// store; two concurrent commits of the same transaction charge exactly
// once. All monetary values are integers in the smallest currency unit,
// so there is no floating-point drift.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Account ID
//	rate_01h2xcejqtf2nbrexx3vqjhp41  // Rate ID
//	carr_01h455vb4pex5vsknk084sn02q  // Carrier ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package rating
