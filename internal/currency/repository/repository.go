package repository

import (
	"github.com/smallbiznis/shipdesk/internal/currency/domain"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
	"gorm.io/gorm"
)

func Provide(db *gorm.DB) domain.Repository {
	return pkgrepository.ProvideStoreWithKey[domain.Currency](db, "code")
}
