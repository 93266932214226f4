package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/tasknest/tasknest_backend/config"
	"github.com/tasknest/tasknest_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"
)

// SaveNotification saves an in-app notification to the database
func SaveNotification(db *mongo.Client, userID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	collection := db.Database(config.DBName()).Collection("notifications")

	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := collection.InsertOne(context.Background(), notification)
	return err
}

// NotifySettlement tells a user the outcome of a reviewed request, both
// in-app and over FCM. Delivery failures are logged, never propagated:
// the settlement itself has already committed.
func NotifySettlement(db *mongo.Client, userID primitive.ObjectID, kind models.RequestKind, action string, amount float64) {
	title := fmt.Sprintf("%s %s", requestKindLabel(kind), action)
	message := fmt.Sprintf("Your %s request has been %s.", requestKindLabel(kind), action)
	if amount > 0 {
		message = fmt.Sprintf("Your %s request has been %s. Amount: %.2f", requestKindLabel(kind), action, amount)
	}

	data := map[string]interface{}{
		"kind":   string(kind),
		"action": action,
		"amount": fmt.Sprintf("%.2f", amount),
	}

	if err := SaveNotification(db, userID, title, message, "settlement", data); err != nil {
		log.Printf("Failed to save settlement notification for user %s: %v", userID.Hex(), err)
	}

	if err := SendFCMNotificationToUser(db, userID, title, message, data); err != nil {
		log.Printf("Failed to send FCM settlement notification for user %s: %v", userID.Hex(), err)
	}
}

func requestKindLabel(kind models.RequestKind) string {
	switch kind {
	case models.KindDeposit:
		return "Deposit"
	case models.KindWithdrawal:
		return "Withdrawal"
	case models.KindReferral:
		return "Referral bonus"
	case models.KindTaskSubmission:
		return "Task submission"
	case models.KindTaskRequest:
		return "Task listing"
	case models.KindBoosterPurchase:
		return "Booster purchase"
	default:
		return "Request"
	}
}

// SendSettlementEmail emails a user the outcome of a reviewed request
func SendSettlementEmail(db *mongo.Client, userID primitive.ObjectID, kind models.RequestKind, action string, amount float64) error {
	var user models.User
	err := db.Database(config.DBName()).Collection("users").FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user.Email == "" {
		return fmt.Errorf("user has no email address")
	}

	subject := fmt.Sprintf("%s %s", requestKindLabel(kind), action)
	body := fmt.Sprintf("Dear %s,\n\nYour %s request has been %s.", user.FullName, requestKindLabel(kind), action)
	if amount > 0 {
		body += fmt.Sprintf("\nAmount: %.2f", amount)
	}
	body += "\n\nBest regards,\nThe TaskNest Team"

	// Send email using gomail
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}
	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send settlement email to user %s: %v", userID.Hex(), err)
		return err
	}
	return nil
}

// SendFCMNotificationToUser sends a Firebase Cloud Messaging notification to a user
func SendFCMNotificationToUser(db *mongo.Client, userID primitive.ObjectID, title, message string, data map[string]interface{}) error {
	// Get user's FCM token from database
	collection := db.Database(config.DBName()).Collection("users")
	var user models.User
	err := collection.FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if user.FCMToken == "" {
		log.Printf("User %s has no FCM token", userID.Hex())
		return fmt.Errorf("user has no FCM token")
	}

	if config.FirebaseApp == nil {
		log.Printf("Firebase app is not initialized")
		return fmt.Errorf("firebase app not initialized")
	}

	ctx := context.Background()
	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		log.Printf("Error getting messaging client: %v", err)
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	notificationData := map[string]string{
		"type":      "settlement",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	// Override/merge with provided data
	if data != nil {
		for key, value := range data {
			if str, ok := value.(string); ok {
				notificationData[key] = str
			} else {
				notificationData[key] = ""
			}
		}
	}

	fcmMessage := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  message,
		},
		Data: notificationData,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "tasknest_fcm_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  message,
					},
					Sound:    "default",
					Badge:    func() *int { v := 1; return &v }(),
					Category: "SETTLEMENT",
				},
			},
		},
	}

	response, err := client.Send(ctx, fcmMessage)
	if err != nil {
		log.Printf("Error sending FCM notification to user: %v", err)
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}

	log.Printf("FCM notification sent successfully to user %s: %s", userID.Hex(), response)
	return nil
}
