package oracle

import (
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

func init() {
	connector.Register(dialect.Oracle, New)
}
