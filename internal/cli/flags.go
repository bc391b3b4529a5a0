package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/charliek/poolwatch/internal/config"
)

// poolFlags are the pool parameters accepted by init and save. Unset flags
// keep the configured value.
type poolFlags struct {
	maxCapacity   int
	totalTickets  int
	releaseRate   int
	retrievalRate int
}

func (p *poolFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&p.maxCapacity, "max-capacity", 0, "Maximum ticket capacity")
	fs.IntVar(&p.totalTickets, "total-tickets", 0, "Initial number of tickets")
	fs.IntVar(&p.releaseRate, "release-rate", 0, "Ticket release rate")
	fs.IntVar(&p.retrievalRate, "retrieval-rate", 0, "Customer ticket retrieval rate")
}

func (p *poolFlags) apply(cmd *cobra.Command, pool *config.PoolConfig) {
	fs := cmd.Flags()
	if fs.Changed("max-capacity") {
		pool.MaxTicketCapacity = p.maxCapacity
	}
	if fs.Changed("total-tickets") {
		pool.TotalTickets = p.totalTickets
	}
	if fs.Changed("release-rate") {
		pool.TicketReleaseRate = p.releaseRate
	}
	if fs.Changed("retrieval-rate") {
		pool.CustomerTicketRetrievalRate = p.retrievalRate
	}
}

// workerFlags are the counts accepted by start
type workerFlags struct {
	vendors   int
	consumers int
}

func (w *workerFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&w.vendors, "vendors", 0, "Number of vendor threads")
	fs.IntVar(&w.consumers, "consumers", 0, "Number of consumer threads")
}

func (w *workerFlags) apply(cmd *cobra.Command, pool *config.PoolConfig) {
	fs := cmd.Flags()
	if fs.Changed("vendors") {
		pool.VendorCount = w.vendors
	}
	if fs.Changed("consumers") {
		pool.ConsumerCount = w.consumers
	}
}
