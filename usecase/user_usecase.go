package usecase

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt"

	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/configuration"
	"social-hub/infrastructure/logger"
)

type IUserUsecase interface {
	Login(ctx context.Context, req model.ReqLogin) dto.Res
	Register(ctx context.Context, req model.ReqRegister) dto.Res
}

type userUsecase struct {
	userRepo repository.IUser
}

func NewUserUsecase(userRepo repository.IUser) IUserUsecase {
	return &userUsecase{userRepo: userRepo}
}

func (u *userUsecase) Login(ctx context.Context, req model.ReqLogin) dto.Res {
	user, err := u.userRepo.GetByUserName(ctx, req.UserName)
	if err != nil {
		logger.GetLogger().WithField("user_name", req.UserName).Warn("Login lookup failed")
		return dto.Res{ResponseCode: "401", ResponseMessage: "Invalid credentials"}
	}
	if user.Password != req.Password {
		return dto.Res{ResponseCode: "401", ResponseMessage: "Invalid credentials"}
	}

	claims := model.UserClaims{
		UserName:       user.UserName,
		OrganizationID: user.OrganizationID,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.UserName,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(configuration.C.App.SecretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Token signing failed")
		return dto.Res{ResponseCode: "500", ResponseMessage: "Internal error"}
	}

	return dto.Res{
		ResponseCode:    "200",
		ResponseMessage: "Success",
		Data:            map[string]interface{}{"token": signed, "organization_id": user.OrganizationID},
	}
}

func (u *userUsecase) Register(ctx context.Context, req model.ReqRegister) dto.Res {
	if _, err := u.userRepo.GetByUserName(ctx, req.UserName); err == nil {
		return dto.Res{ResponseCode: "409", ResponseMessage: "User already exists"}
	}

	user := model.User{
		Name:           req.Name,
		UserName:       req.UserName,
		Password:       req.Password,
		OrganizationID: req.OrganizationID,
	}
	if err := u.userRepo.CreateUser(ctx, user); err != nil {
		return dto.Res{ResponseCode: "500", ResponseMessage: "Registration failed"}
	}
	return dto.Res{ResponseCode: "201", ResponseMessage: "Created"}
}
