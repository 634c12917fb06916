package handlers

import (
	"github.com/workqueue-dev/workqueue/internal/services/mail"
	"github.com/workqueue-dev/workqueue/internal/services/storage"
)

var (
	mailer mail.Mailer
	files  storage.Store
)

// Init wires the shared services the handlers depend on. Call once at
// startup before mounting the router.
func Init(m mail.Mailer, s storage.Store) {
	mailer = m
	files = s
}
