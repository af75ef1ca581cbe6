package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"runsight_backend/internal/model"
	"runsight_backend/internal/repository"
	"runsight_backend/internal/util"

	"github.com/google/uuid"
)

// ProfileUpdate 可自助修改的字段
type ProfileUpdate struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type UserService struct {
	UserRepo       *repository.UserRepository
	StorageService *StorageService
}

func NewUserService(userRepo *repository.UserRepository, storageService *StorageService) *UserService {
	return &UserService{
		UserRepo:       userRepo,
		StorageService: storageService,
	}
}

func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	return s.UserRepo.FindByID(userID)
}

func (s *UserService) UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		user.Name = update.Name
	}
	if update.Timezone != "" {
		if _, err := time.LoadLocation(update.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone: %q", update.Timezone)
		}
		user.Timezone = update.Timezone
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// UploadAvatar 校验图片内容后存储，返回访问 URL
func (s *UserService) UploadAvatar(ctx context.Context, userID uint, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, e := range util.AllowedAvatarExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("unsupported avatar extension: %q", ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeImage})
	if err != nil {
		return "", err
	}
	if _, err := src.Seek(0, 0); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("avatars/%d/%s%s", userID, uuid.New().String(), ext)
	url, err := s.StorageService.Upload(ctx, filename, src, file.Size, mimeType)
	if err != nil {
		return "", err
	}

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return "", err
	}
	user.Avatar = url
	if err := s.UserRepo.Update(user); err != nil {
		return "", err
	}

	return url, nil
}

// ListUsers 管理端分页列表
func (s *UserService) ListUsers(page, limit int) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.UserRepo.List(page, limit)
}

func (s *UserService) SetDisabled(userID uint, disabled bool) error {
	return s.UserRepo.SetDisabled(userID, disabled)
}

// AdminUpdate 管理端修改用户，可以改角色
type AdminUpdate struct {
	Name     string         `json:"name"`
	Timezone string         `json:"timezone"`
	Role     model.UserRole `json:"role"`
}

func (s *UserService) AdminUpdateUser(userID uint, update AdminUpdate) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		user.Name = update.Name
	}
	if update.Timezone != "" {
		if _, err := time.LoadLocation(update.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone: %q", update.Timezone)
		}
		user.Timezone = update.Timezone
	}
	if update.Role != "" {
		if update.Role != model.Athlete && update.Role != model.Admin {
			return nil, fmt.Errorf("invalid role: %q", update.Role)
		}
		user.Role = update.Role
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
