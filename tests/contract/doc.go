// Package contract replays recorded Reddit API responses through the client
// and validates every decoded model against its field contracts. The tests
// never touch the network.
//
// Run with: go test -tags=contract ./tests/contract/...
//
// Refresh fixtures with:
//
//	go run ./cmd/recordapi -endpoint user -arg spez
//	go run ./cmd/recordapi -endpoint comments -arg 8xwlg
//
// Fixtures land under testdata/<endpoint>/ unless -output is given.
package contract
