// Package ndb is a Go client for the NDB document-search service.
//
// Every value exchanged with the server is validated when it is built, so a
// request that reaches the network can always be represented on the wire.
// Failures come in two kinds: ErrSchema for values or responses that do not
// match the wire schema, and ErrTransport for network failures and non-2xx
// statuses. Each operation is a single HTTP request; nothing is retried.
//
// # Searching
//
//	client, _ := ndb.New("http://localhost:8000")
//	years, _ := ndb.AnyOf(ndb.Int, []int{2022, 2023})
//	params, _ := ndb.NewSearchParams("quarterly revenue", 5, map[string]ndb.Constraint{
//	    "year": years,
//	})
//	resp, err := client.Search(ctx, params)
//
// or with the builder:
//
//	resp, err := client.Query("quarterly revenue").TopK(5).
//	    AnyOf("year", ndb.Int, []int{2022, 2023}).
//	    Do(ctx)
//
// # Ingesting
//
//	meta, _ := ndb.NewDocumentMetadata("reports/q3.csv", []string{"text"},
//	    ndb.WithSourceID("q3"),
//	    ndb.WithMetadataType("year", ndb.Int),
//	    ndb.WithDocMetadata("year", 2023),
//	)
//	raw, err := client.Insert(ctx, meta)
//
// # Wire format
//
// Encode and Decode convert any value type of this package to and from its
// JSON form; Decode(Encode(v)) yields a value equal to v.
package ndb
