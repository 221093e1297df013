package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/kata-app/kata-backend/internal/database"
)

const (
	// SessionDuration is 7 days.
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions.
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping.
	UserSessionKeyPrefix = "user_session:"
)

// CreateSession creates a session token for a user and stores it in Redis.
// Any existing session for the user is invalidated first, so the 7-day timer
// resets from the current login.
func CreateSession(uid string) (string, error) {
	InvalidateUserSessions(uid)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	sessionToken := base64.URLEncoding.EncodeToString(tokenBytes)

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken
	userSessionKey := UserSessionKeyPrefix + uid

	if err := database.RedisClient.Set(ctx, sessionKey, uid, SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, userSessionKey, sessionToken, SessionDuration).Err(); err != nil {
		return "", err
	}

	return sessionToken, nil
}

// ValidateSession checks a session token and returns the user id.
func ValidateSession(sessionToken string) (string, bool, error) {
	if sessionToken == "" {
		return "", false, nil
	}

	ctx := context.Background()
	uid, err := database.RedisClient.Get(ctx, SessionKeyPrefix+sessionToken).Result()
	if err != nil {
		return "", false, nil
	}
	return uid, true, nil
}

// InvalidateSession removes a session from Redis.
func InvalidateSession(sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken

	uid, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err == nil && uid != "" {
		database.RedisClient.Del(ctx, UserSessionKeyPrefix+uid)
	}

	return database.RedisClient.Del(ctx, sessionKey).Err()
}

// InvalidateUserSessions invalidates the active session for a user (used on
// login and on account deletion).
func InvalidateUserSessions(uid string) error {
	ctx := context.Background()
	userSessionKey := UserSessionKeyPrefix + uid

	sessionToken, err := database.RedisClient.Get(ctx, userSessionKey).Result()
	if err == nil && sessionToken != "" {
		database.RedisClient.Del(ctx, SessionKeyPrefix+sessionToken)
	}

	return database.RedisClient.Del(ctx, userSessionKey).Err()
}
