package acctidx

// Version of the acctidx library and CLI. Release builds set it with:
//
//	go build -ldflags "-X github.com/CVDpl/go-acctidx/pkg/acctidx.Version=0.3.0" ./cmd/acctidx
var Version = "0.2.1"
