package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/provider"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/olekukonko/tablewriter"
)

type pharmacySeed struct {
	Name     string
	Location string
	Phone    string
	Username string
}

var pharmacySeeds = []pharmacySeed{
	{Name: "Legon Campus Pharmacy", Location: "University of Ghana, Legon", Phone: "0302000001", Username: "legon"},
	{Name: "KNUST Health Pharmacy", Location: "KNUST, Kumasi", Phone: "0322000002", Username: "knust"},
	{Name: "Cape Coast Pharmacy", Location: "UCC, Cape Coast", Phone: "0332000003", Username: "ucc"},
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg, models.DB)
	defer container.Close()

	// 管理员
	adminName := envOr("DK_SEED_ADMIN_USERNAME", "admin")
	adminPass := envOr("DK_SEED_ADMIN_PASSWORD", "admin12345")
	admin, err := container.OperatorRepo.GetByUsername(adminName)
	if err != nil {
		stdLog.Fatalf("Failed to load admin: %v", err)
	}
	if admin == nil {
		admin, err = container.AuthService.CreateOperator(adminName, envOr("DK_SEED_ADMIN_EMAIL", "admin@discreetkit.local"), adminPass, constants.RoleAdmin)
		if err != nil {
			stdLog.Fatalf("Failed to create admin: %v", err)
		}
		stdLog.Printf("Created admin: %s", adminName)
	} else {
		stdLog.Printf("Admin already exists: %s", adminName)
	}
	if err := container.AuthzService.SetOperatorRoles(admin.ID, []string{constants.RoleAdmin}); err != nil {
		stdLog.Fatalf("Failed to grant admin role: %v", err)
	}
	actor := service.Actor{OperatorID: admin.ID, Username: admin.Username, Email: admin.Email, Role: constants.RoleAdmin}

	// 药房
	existing, err := container.PharmacyService.List(actor, false)
	if err != nil {
		stdLog.Fatalf("Failed to list pharmacies: %v", err)
	}
	byName := make(map[string]models.Pharmacy, len(existing))
	for _, p := range existing {
		byName[strings.ToLower(p.Name)] = p
	}

	pharmacyPass := envOr("DK_SEED_PHARMACY_PASSWORD", "pharmacy12345")
	for _, seed := range pharmacySeeds {
		if _, ok := byName[strings.ToLower(seed.Name)]; ok {
			stdLog.Printf("Pharmacy already exists: %s", seed.Name)
			continue
		}
		created, err := container.PharmacyService.Create(actor, service.PharmacyInput{
			Name:             seed.Name,
			Location:         seed.Location,
			Phone:            seed.Phone,
			OperatorUsername: seed.Username,
			OperatorPassword: pharmacyPass,
		})
		if err != nil {
			stdLog.Printf("Failed to create pharmacy %s: %v", seed.Name, err)
			continue
		}
		byName[strings.ToLower(created.Name)] = *created
		stdLog.Printf("Created pharmacy: %s", seed.Name)
	}

	pharmacies, err := container.PharmacyService.List(actor, false)
	if err != nil {
		stdLog.Fatalf("Failed to list pharmacies: %v", err)
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Location", "Active", "Operator")
	for _, p := range pharmacies {
		operator := "-"
		if p.OperatorID != nil {
			operator = fmt.Sprintf("%d", *p.OperatorID)
		}
		if err := table.Append(fmt.Sprintf("%d", p.ID), p.Name, p.Location, fmt.Sprintf("%t", p.IsActive), operator); err != nil {
			stdLog.Printf("Failed to render row: %v", err)
		}
	}
	if err := table.Render(); err != nil {
		stdLog.Printf("Failed to render table: %v", err)
	}

	stdLog.Println("Seed data created successfully!")
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
