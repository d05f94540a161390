package domain

import (
	"context"
	"errors"
)

type SaveCompanyRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	TaxNumber  string `json:"taxNumber"`
	Website    string `json:"website"`
	FooterNote string `json:"footerNote"`
}

type Service interface {
	// Get returns an empty profile when none has been saved yet.
	Get(ctx context.Context) (CompanyInfo, error)
	Save(ctx context.Context, req SaveCompanyRequest) (CompanyInfo, error)
	Patch(ctx context.Context, fields map[string]any) (CompanyInfo, error)
	UploadLogo(ctx context.Context, data []byte) (CompanyInfo, error)
	RemoveLogo(ctx context.Context) (CompanyInfo, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidLogo  = errors.New("invalid_logo")
)
