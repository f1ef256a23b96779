package ledgerstore

import "github.com/sedlynet/sedlyd/infrastructure/logger"

var log = logger.RegisterSubSystem("LDGS")
