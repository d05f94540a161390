package repository

import (
	"github.com/smallbiznis/shipdesk/internal/auth/domain"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
	"gorm.io/gorm"
)

func Provide(db *gorm.DB) domain.Repository {
	return pkgrepository.ProvideStore[domain.User](db)
}
