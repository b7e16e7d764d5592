package env

import (
	"github.com/thatsimonsguy/misting-controller/internal/config"
)

var Cfg *config.Config
