//go:build ignore

// ===========================================================================
// Script tạo seed data cho Firestore (project thật hoặc emulator)
// Chạy: go run scripts/seed/main.go
// Với emulator: FIRESTORE_EMULATOR_HOST=localhost:8080 go run scripts/seed/main.go
// ===========================================================================

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"garage-chat/internal/config"
	"garage-chat/internal/docstore"
	"garage-chat/internal/models"
	"garage-chat/internal/session"
	"garage-chat/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// seedID id cố định theo tên, chạy lại script không tạo trùng document
func seedID(kind, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("garage-chat:"+kind+":"+name)).String()
}

func main() {
	fmt.Println("🌱 Bắt đầu seed data...")

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Không thể load config: %v", err)
	}

	zapLog, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format, "seed")
	if err != nil {
		log.Fatalf("Không thể tạo logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	docs, closeDocs, err := docstore.OpenShared(ctx, cfg.Firebase, zapLog)
	if err != nil {
		log.Fatalf("Không thể kết nối Firestore: %v", err)
	}
	defer closeDocs()

	fmt.Println("✅ Đã kết nối Firestore")

	put := func(collection, id, label string, data map[string]interface{}) {
		if err := docs.Merge(ctx, collection, id, data); err != nil {
			zapLog.Warn("Không thể ghi document",
				zap.String("collection", collection), zap.String("id", id), zap.Error(err))
			return
		}
		fmt.Printf("✅ %s: %s (ID: %s)\n", collection, label, id)
	}

	// =========================================================================
	// 1. Users (khách + nhân viên)
	// =========================================================================
	customerID := seedID("user", "khach@demo.com")
	staffID := seedID("user", "STAFF01@demo.com")

	put(models.UsersCollection, customerID, "khach@demo.com", map[string]interface{}{
		"uid":      customerID,
		"username": "khachdemo",
		"fullname": "Nguyễn Văn Khách",
		"phone":    "0901234567",
		"address":  "Quận 1, TP.HCM",
		"email":    "khach@demo.com",
		"isActive": true,
	})
	put(models.UsersCollection, staffID, "STAFF01@demo.com", map[string]interface{}{
		"uid":      staffID,
		"username": "staff01",
		"fullname": "Trần Thị Nhân Viên",
		"email":    "STAFF01@demo.com",
		"isActive": true,
	})

	// =========================================================================
	// 2. Services
	// =========================================================================
	services := []models.Service{
		{Name: "Thay dầu", Price: 350000, Description: "Thay dầu động cơ và lọc dầu"},
		{Name: "Bảo dưỡng định kỳ", Price: 1200000, Description: "Kiểm tra tổng quát 40 hạng mục"},
		{Name: "Sơn dặm", Price: 800000},
	}
	for _, s := range services {
		put(session.ServicesCollection, seedID("service", s.Name), s.Name, map[string]interface{}{
			"name":        s.Name,
			"price":       s.Price,
			"description": s.Description,
		})
	}

	// =========================================================================
	// 3. Vehicles
	// =========================================================================
	vehicle := models.Vehicle{
		OwnerID:      customerID,
		Name:         "Vios 2020",
		Brand:        "Toyota",
		Model:        "Vios G",
		Color:        "Trắng",
		LicensePlate: "51H-123.45",
		VIN:          "MHFBT9F30L1000001",
		Km:           42000,
		PurchaseDate: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	put(session.VehiclesCollection, seedID("vehicle", vehicle.LicensePlate), vehicle.LicensePlate, vehicle.Fields())

	// =========================================================================
	// 4. Lịch sửa chữa + lái thử (đang chờ, để test notifier)
	// =========================================================================
	put(cfg.Notifier.RepairCollection, seedID("repair", vehicle.LicensePlate), vehicle.Name, map[string]interface{}{
		"uid":         customerID,
		"userName":    "khachdemo",
		"carName":     vehicle.Name,
		"carType":     vehicle.Brand,
		"staff":       "staff01",
		"service":     services[1].Name,
		"date":        time.Now().Add(24 * time.Hour),
		"status":      models.RepairStatusPending,
		"statusCheck": models.CheckStatusConfirmed,
	})
	put(cfg.Notifier.TestDriveCollection, seedID("testdrive", "camry"), "Camry 2.5Q", map[string]interface{}{
		"uid":         customerID,
		"userName":    "khachdemo",
		"productId":   "camry-25q",
		"productName": "Camry 2.5Q",
		"date":        time.Now().Add(48 * time.Hour).Format("2006-01-02"),
		"status":      models.TestDriveStatusPending,
	})

	// =========================================================================
	// Summary
	// =========================================================================
	fmt.Println("")
	fmt.Println("========================================")
	fmt.Println("🎉 Seed data hoàn tất!")
	fmt.Println("========================================")
	fmt.Println("")
	fmt.Println("📝 Đăng nhập chatclient:")
	fmt.Println("   go run ./cmd/chatclient --email khach@demo.com")
	fmt.Println("   go run ./cmd/chatclient --email STAFF01@demo.com")
	fmt.Println("")
	fmt.Printf("💡 Đổi status lịch %s sang %q để thấy thông báo hoàn thành\n",
		seedID("repair", vehicle.LicensePlate), models.RepairStatusCompleted)
}
