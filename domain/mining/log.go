package mining

import (
	"github.com/sedlynet/sedlyd/infrastructure/logger"
	"github.com/sedlynet/sedlyd/util/panics"
)

var log = logger.RegisterSubSystem("MINR")
var spawn = panics.GoroutineWrapperFunc(log)
