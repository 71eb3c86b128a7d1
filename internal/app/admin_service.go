package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"member_attendance_bot/internal/domain/member"
	idb "member_attendance_bot/internal/infra/database"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrMemberAlreadyExists = fmt.Errorf("member with this barcode already exists")
var ErrMemberAlreadyInactive = fmt.Errorf("member is already inactive")
var ErrBarcodeRequired = fmt.Errorf("barcode must not be empty")

type AdminService struct {
	memberRepo      member.Repository
	adminTelegramID int64
}

func NewAdminService(mr member.Repository, adminID int64) *AdminService {
	return &AdminService{
		memberRepo:      mr,
		adminTelegramID: adminID,
	}
}

// AddMember handles the business logic for registering a new member.
func (s *AdminService) AddMember(ctx context.Context, performingAdminID int64, barcode, firstName, lastNameValue string) (*member.Member, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	if barcode == "" {
		return nil, ErrBarcodeRequired
	}

	// Check if a member already carries this barcode
	_, err := s.memberRepo.GetByBarcode(ctx, barcode)
	if err == nil { // Member found, so already exists
		return nil, ErrMemberAlreadyExists
	}
	if !errors.Is(err, idb.ErrMemberNotFound) { // Another error occurred during lookup
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}

	var lastName sql.NullString
	if lastNameValue != "" {
		lastName.String = lastNameValue
		lastName.Valid = true
	}

	newMember := &member.Member{
		Barcode:   barcode,
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true, // New members are active by default
	}

	err = s.memberRepo.Create(ctx, newMember)
	if err != nil {
		if errors.Is(err, idb.ErrDuplicateBarcode) {
			return nil, ErrMemberAlreadyExists
		}
		return nil, fmt.Errorf("failed to create member in repository: %w", err)
	}

	return newMember, nil
}

// RemoveMember handles the business logic for deactivating a member.
func (s *AdminService) RemoveMember(ctx context.Context, performingAdminID int64, barcode string) (*member.Member, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}

	target, err := s.memberRepo.GetByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, idb.ErrMemberNotFound) {
			return nil, idb.ErrMemberNotFound // Propagate specific error
		}
		return nil, fmt.Errorf("failed to get member by barcode for removal: %w", err)
	}

	if !target.IsActive {
		return target, ErrMemberAlreadyInactive
	}

	target.IsActive = false
	err = s.memberRepo.Update(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to update member to inactive in repository: %w", err)
	}

	return target, nil
}

// ListActiveMembers returns the active members for the admin surface.
func (s *AdminService) ListActiveMembers(ctx context.Context, performingAdminID int64) ([]*member.Member, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	return s.memberRepo.ListActive(ctx)
}

// ListAllMembers returns every member, including deactivated ones.
func (s *AdminService) ListAllMembers(ctx context.Context, performingAdminID int64) ([]*member.Member, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	return s.memberRepo.ListAll(ctx)
}
