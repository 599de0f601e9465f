package main

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"sweetshop/internal/config"
	"sweetshop/internal/domain/model"
	"sweetshop/internal/handler"
	"sweetshop/internal/infra/db"
	infraRepo "sweetshop/internal/infra/repository"
	"sweetshop/internal/server"
	"sweetshop/internal/usecase"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID string, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// .envは無ければ無いで構わない
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Sweet{},
	); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	//Repository（GORM実装）生成
	sweetRepo := infraRepo.NewSweetGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	hasher := usecase.NewBcryptPasswordHasher(12)
	verifier := usecase.NewBcryptPasswordVerifier()
	issuer := &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.AccessTTL) * time.Minute,
	}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, hasher, verifier, issuer, idGen, clock)
	inventoryUC := usecase.NewInventoryUsecase(sweetRepo)
	catalogUC := usecase.NewCatalogUsecase(sweetRepo)

	//Handler生成
	authH := handler.NewAuthHandler(authUC)
	sweetH := handler.NewSweetHandler(inventoryUC, catalogUC)
	adminH := handler.NewAdminSweetHandler(inventoryUC)

	e := server.New(cfg, log, authH, sweetH, adminH)

	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("sweet shop api listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
