package api

import (
	"github.com/searchingforj/insiders/app/database"
	"github.com/searchingforj/insiders/app/watch"
)

type Handler struct {
	filingRepo database.FilingRepository
	watchCache *watch.Cache
}
