// Package all links every database backend into the binary. Importing it
// for side effects registers the postgres, mysql, mssql and oracle
// connectors with the factory registry.
package all

import (
	_ "github.com/veriqa-inc/veriqa-engine/pkg/connector/mssql"
	_ "github.com/veriqa-inc/veriqa-engine/pkg/connector/mysql"
	_ "github.com/veriqa-inc/veriqa-engine/pkg/connector/oracle"
	_ "github.com/veriqa-inc/veriqa-engine/pkg/connector/postgres"
)
