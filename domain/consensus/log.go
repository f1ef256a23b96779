package consensus

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("LDGR")

func spewBlock(block *externalapi.DomainBlock) string {
	return spew.Sdump(block)
}
