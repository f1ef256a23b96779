package main

import (
	"github.com/sedlynet/sedlyd/infrastructure/logger"
	"github.com/sedlynet/sedlyd/util/panics"
)

var (
	log   = logger.RegisterSubSystem("SDMN")
	spawn = panics.GoroutineWrapperFunc(log)
)
