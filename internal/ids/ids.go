// Package ids generates sortable identifiers for stored records.
package ids

import (
	"strings"

	"github.com/segmentio/ksuid"
)

func New() string {
	return ksuid.New().String()
}

// OrderNumber is the human-facing reference printed on an order.
func OrderNumber() string {
	return "ORD-" + strings.ToUpper(ksuid.New().String())
}
