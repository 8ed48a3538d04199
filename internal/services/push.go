package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/arnold/charity-quests-api/internal/apperrors"
	"github.com/arnold/charity-quests-api/internal/events"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// PushSender delivers one push message.
type PushSender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// PushService sends Firebase Cloud Messaging notifications for quest
// completions and achievement grants. It is an events listener.
type PushService struct {
	client PushSender
	users  UserStore
}

// NewPushService initializes Firebase messaging. It returns a disabled
// service when no service account is configured (dev mode) or Firebase
// cannot be initialized.
func NewPushService(ctx context.Context, serviceAccountPath string, users UserStore) *PushService {
	if serviceAccountPath == "" {
		slog.Info("FCM: no service account configured, push notifications disabled")
		return &PushService{users: users}
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		slog.Error("FCM: failed to initialize Firebase app", slog.Any("error", err))
		return &PushService{users: users}
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		slog.Error("FCM: failed to get messaging client", slog.Any("error", err))
		return &PushService{users: users}
	}

	slog.Info("FCM: push notifications enabled")
	return &PushService{client: client, users: users}
}

// NewPushServiceWithSender wires an existing sender.
func NewPushServiceWithSender(sender PushSender, users UserStore) *PushService {
	return &PushService{client: sender, users: users}
}

// RegisterDevice saves the FCM token used for a user's notifications.
func (p *PushService) RegisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.DeviceTokenRequired()
	}
	err := p.users.SetFCMToken(ctx, userID, token)
	if errors.Is(err, ErrNotFound) {
		return apperrors.UserNotFound(userID)
	}
	return err
}

func (p *PushService) Enabled() bool {
	return p.client != nil
}

func (p *PushService) Handle(ctx context.Context, e events.Event) error {
	if p.client == nil {
		return nil
	}
	switch data := e.Data.(type) {
	case events.QuestCompletedData:
		body := fmt.Sprintf("You completed \"%s\"", data.QuestTitle)
		if data.ExperienceReward > 0 {
			body = fmt.Sprintf("%s and earned %d XP", body, data.ExperienceReward)
		}
		return p.SendToUser(ctx, e, "Quest completed!", body)
	case events.AchievementGrantedData:
		return p.SendToUser(ctx, e, "Achievement unlocked!", fmt.Sprintf("You earned \"%s\"", data.Title))
	}
	return nil
}

// SendToUser sends a notification to the user of e. It is a no-op when the
// user has no FCM token.
func (p *PushService) SendToUser(ctx context.Context, e events.Event, title, body string) error {
	user, err := p.users.Get(ctx, e.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.FCMToken == "" {
		return nil
	}

	msg := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":    string(e.Name),
			"questId": e.QuestID.String(),
		},
	}
	if _, err := p.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("fcm send to user %s: %w", e.UserID, err)
	}
	return nil
}
