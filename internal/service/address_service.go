package service

import (
	"strings"

	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/repository"
)

// AddressService 收货地址服务
type AddressService struct {
	addressRepo repository.AddressRepository
}

// NewAddressService 创建地址服务
func NewAddressService(addressRepo repository.AddressRepository) *AddressService {
	return &AddressService{addressRepo: addressRepo}
}

// AddressInput 地址输入
type AddressInput struct {
	FullName     string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Pincode      string
	Country      string
	IsDefault    bool
}

func (in *AddressInput) normalize() error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	in.AddressLine2 = strings.TrimSpace(in.AddressLine2)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Pincode = strings.TrimSpace(in.Pincode)
	in.Country = strings.TrimSpace(in.Country)
	if in.Country == "" {
		in.Country = "India"
	}
	if in.FullName == "" || in.Phone == "" || in.AddressLine1 == "" ||
		in.City == "" || in.State == "" || in.Pincode == "" {
		return ErrValidation
	}
	return nil
}

// List 用户地址列表
func (s *AddressService) List(userID uint) ([]models.Address, error) {
	return s.addressRepo.ListByUser(userID)
}

// Create 新增地址
func (s *AddressService) Create(userID uint, input AddressInput) (*models.Address, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if input.IsDefault {
		if err := s.addressRepo.ClearDefault(userID); err != nil {
			return nil, err
		}
	}
	address := &models.Address{
		UserID:       userID,
		FullName:     input.FullName,
		Phone:        input.Phone,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		Pincode:      input.Pincode,
		Country:      input.Country,
		IsDefault:    input.IsDefault,
	}
	if err := s.addressRepo.Create(address); err != nil {
		return nil, err
	}
	return address, nil
}

// Update 更新地址
func (s *AddressService) Update(userID, addressID uint, input AddressInput) (*models.Address, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	address, err := s.addressRepo.GetByIDAndUser(addressID, userID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}
	if input.IsDefault && !address.IsDefault {
		if err := s.addressRepo.ClearDefault(userID); err != nil {
			return nil, err
		}
	}
	address.FullName = input.FullName
	address.Phone = input.Phone
	address.AddressLine1 = input.AddressLine1
	address.AddressLine2 = input.AddressLine2
	address.City = input.City
	address.State = input.State
	address.Pincode = input.Pincode
	address.Country = input.Country
	address.IsDefault = input.IsDefault
	if err := s.addressRepo.Update(address); err != nil {
		return nil, err
	}
	return address, nil
}

// Delete 删除地址
func (s *AddressService) Delete(userID, addressID uint) error {
	address, err := s.addressRepo.GetByIDAndUser(addressID, userID)
	if err != nil {
		return err
	}
	if address == nil {
		return ErrAddressNotFound
	}
	return s.addressRepo.Delete(addressID, userID)
}
