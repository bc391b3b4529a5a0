package domain

import (
	"fmt"
	"strings"
)

// PoolConfig holds the ticket pool parameters sent to initialize and save
type PoolConfig struct {
	MaxTicketCapacity           int `yaml:"max_ticket_capacity" json:"maxTicketCapacity"`
	TotalTickets                int `yaml:"total_tickets" json:"totalTickets"`
	TicketReleaseRate           int `yaml:"ticket_release_rate" json:"ticketReleaseRate"`
	CustomerTicketRetrievalRate int `yaml:"customer_ticket_retrieval_rate" json:"customerTicketRetrievalRate"`
}

// Validate checks every parameter is a positive integer and the initial
// ticket count fits in the pool.
func (c PoolConfig) Validate() error {
	var errs []string
	check := func(name string, v int) {
		if v < 1 {
			errs = append(errs, fmt.Sprintf("%s: must be at least 1, got %d", name, v))
		}
	}
	check("maxTicketCapacity", c.MaxTicketCapacity)
	check("totalTickets", c.TotalTickets)
	check("ticketReleaseRate", c.TicketReleaseRate)
	check("customerTicketRetrievalRate", c.CustomerTicketRetrievalRate)

	if c.TotalTickets > c.MaxTicketCapacity && c.MaxTicketCapacity >= 1 {
		errs = append(errs, fmt.Sprintf("totalTickets: %d exceeds maxTicketCapacity %d", c.TotalTickets, c.MaxTicketCapacity))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(errs, "; "))
	}
	return nil
}

// StartParams holds the worker counts sent to start
type StartParams struct {
	VendorCount   int
	ConsumerCount int
}

// Validate checks both counts are positive
func (p StartParams) Validate() error {
	if p.VendorCount < 1 || p.ConsumerCount < 1 {
		return fmt.Errorf("%w: vendorCount and consumerCount must be at least 1, got %d and %d",
			ErrInvalidParams, p.VendorCount, p.ConsumerCount)
	}
	return nil
}
