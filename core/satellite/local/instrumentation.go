package local

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/krelja/assist-core/core/satellite/local"

var logger = otelslog.NewLogger(scopeName)
