package remote

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kata-app/kata-backend/internal/models"
	"github.com/kata-app/kata-backend/pkg/utils"
)

const (
	// ReauthMaxAttempts failed password checks within ReauthWindow trip
	// TooManyAttempts.
	ReauthMaxAttempts = 5
	ReauthWindow      = 15 * time.Minute

	loginAttemptsKeyPrefix  = "login_attempts:"
	reauthAttemptsKeyPrefix = "reauth_attempts:"

	usersCollection = "users"
)

// AuthEvent is one entry of the gateway's auth-state stream. A zero UID means
// signed out.
type AuthEvent struct {
	UID   string
	Email string
}

// Gateway wraps the auth principal store (PostgreSQL), the document store
// (MongoDB), Redis and the asset store behind typed operations. It is the
// single remote boundary of the app: everything above it works on models and
// classified errors.
type Gateway struct {
	pg     *sql.DB
	db     *mongo.Database
	rdb    *redis.Client
	assets *AssetStore

	mu      sync.Mutex
	subs    map[int]chan AuthEvent
	nextSub int
}

// New builds a gateway. assets may be nil when asset storage is not
// configured; uploads then fail with UploadFailed instead of panicking.
func New(pg *sql.DB, db *mongo.Database, rdb *redis.Client, assets *AssetStore) *Gateway {
	return &Gateway{
		pg:     pg,
		db:     db,
		rdb:    rdb,
		assets: assets,
		subs:   make(map[int]chan AuthEvent),
	}
}

// SubscribeAuthState registers a listener on the auth-state stream. The
// returned cancel func must be called when the subscriber goes away; the
// channel is closed by it.
func (g *Gateway) SubscribeAuthState() (<-chan AuthEvent, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextSub
	g.nextSub++
	ch := make(chan AuthEvent, 8)
	g.subs[id] = ch

	cancel := func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if c, ok := g.subs[id]; ok {
			delete(g.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (g *Gateway) publishAuthState(evt AuthEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ch := range g.subs {
		select {
		case ch <- evt:
		default:
			log.Println("auth-state subscriber lagging, event dropped")
		}
	}
}

// ProfileFields are the profile attributes supplied at registration.
type ProfileFields struct {
	Name      string
	Username  string
	Country   string
	Region    string
	City      string
	Bio       string
	AvatarURL string
}

// SignUp creates an auth principal and a profile record sharing one id, then
// emits a signed-in auth event.
func (g *Gateway) SignUp(ctx context.Context, email, password string, profile ProfileFields) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") || len(password) < 6 {
		return nil, NewError(KindInvalidCredential, "malformed email or password")
	}

	var existing string
	err := g.pg.QueryRowContext(ctx, "SELECT id FROM principals WHERE email = $1", email).Scan(&existing)
	if err == nil {
		return nil, NewError(KindAlreadyExists, "an account with this email already exists")
	} else if err != sql.ErrNoRows {
		return nil, WrapError(KindRemote, "failed to check existing account", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, WrapError(KindRemote, "failed to hash password", err)
	}

	uid := uuid.New()
	now := time.Now()
	_, err = g.pg.ExecContext(ctx,
		"INSERT INTO principals (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)",
		uid, email, hash, now)
	if err != nil {
		return nil, WrapError(KindRemote, "failed to create account", err)
	}

	user := &models.User{
		UID:       uid.String(),
		Email:     email,
		Name:      profile.Name,
		Username:  utils.NormalizeUsername(profile.Username),
		Country:   profile.Country,
		Region:    profile.Region,
		City:      profile.City,
		Bio:       profile.Bio,
		AvatarURL: profile.AvatarURL,
		CreatedAt: now,
	}
	if _, err := g.db.Collection(usersCollection).InsertOne(ctx, user); err != nil {
		// The profile record is allowed to lag principal creation; the
		// session store falls back to a minimal identity until it exists.
		log.Printf("profile record not created for %s: %v", uid, err)
	}

	g.publishAuthState(AuthEvent{UID: user.UID, Email: email})
	return user, nil
}

// SignIn verifies the credential, emits a signed-in auth event and returns
// the principal id. Repeated failures for one email trip TooManyAttempts for
// ReauthWindow.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	attemptsKey := loginAttemptsKeyPrefix + email
	if blocked, err := g.attemptsExceeded(ctx, attemptsKey); err == nil && blocked {
		return "", NewError(KindTooManyAttempts, "too many failed sign-in attempts, try again later")
	}

	var uid uuid.UUID
	var hash string
	err := g.pg.QueryRowContext(ctx,
		"SELECT id, password_hash FROM principals WHERE email = $1", email).Scan(&uid, &hash)
	if err == sql.ErrNoRows {
		g.recordFailedAttempt(ctx, attemptsKey)
		return "", NewError(KindInvalidCredential, "invalid email or password")
	} else if err != nil {
		return "", WrapError(KindRemote, "failed to look up account", err)
	}

	valid, err := utils.VerifyPassword(password, hash)
	if err != nil || !valid {
		g.recordFailedAttempt(ctx, attemptsKey)
		return "", NewError(KindInvalidCredential, "invalid email or password")
	}

	g.rdb.Del(ctx, attemptsKey)
	g.publishAuthState(AuthEvent{UID: uid.String(), Email: email})
	return uid.String(), nil
}

// PrincipalEmail returns the email of an auth principal, for building a
// minimal identity when the profile record lags.
func (g *Gateway) PrincipalEmail(ctx context.Context, uid string) (string, error) {
	var email string
	err := g.pg.QueryRowContext(ctx,
		"SELECT email FROM principals WHERE id = $1", uid).Scan(&email)
	if err == sql.ErrNoRows {
		return "", NewError(KindNotFound, "account not found")
	} else if err != nil {
		return "", WrapError(KindRemote, "failed to look up account", err)
	}
	return email, nil
}

// SignOut emits a signed-out auth event. Fire-and-forget: it always succeeds
// locally even when the network is unreachable.
func (g *Gateway) SignOut() {
	g.publishAuthState(AuthEvent{})
}

// DeleteAccount re-authenticates with the supplied password, then removes the
// profile record and finally the auth principal, in that order. When the
// profile is gone but the principal removal fails the caller gets
// PartialDeletion so the remaining step can be retried rather than silently
// reporting success.
func (g *Gateway) DeleteAccount(ctx context.Context, uid, password string) error {
	attemptsKey := reauthAttemptsKeyPrefix + uid
	if blocked, err := g.attemptsExceeded(ctx, attemptsKey); err == nil && blocked {
		return NewError(KindTooManyAttempts, "too many failed attempts, try again later")
	}

	var hash string
	err := g.pg.QueryRowContext(ctx,
		"SELECT password_hash FROM principals WHERE id = $1", uid).Scan(&hash)
	if err == sql.ErrNoRows {
		return NewError(KindNotFound, "account not found")
	} else if err != nil {
		return WrapError(KindRemote, "failed to look up account", err)
	}

	valid, err := utils.VerifyPassword(password, hash)
	if err != nil || !valid {
		g.recordFailedAttempt(ctx, attemptsKey)
		return NewError(KindInvalidCredential, "invalid password")
	}

	if _, err := g.db.Collection(usersCollection).DeleteOne(ctx, bson.M{"_id": uid}); err != nil {
		return WrapError(KindRemote, "failed to delete profile", err)
	}

	if _, err := g.pg.ExecContext(ctx, "DELETE FROM principals WHERE id = $1", uid); err != nil {
		return WrapError(KindPartialDeletion,
			"profile deleted but credentials remain, retry account deletion", err)
	}

	g.rdb.Del(ctx, attemptsKey)
	g.publishAuthState(AuthEvent{})
	return nil
}

// GetProfile loads the profile record for uid.
func (g *Gateway) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := g.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": uid}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, NewError(KindNotFound, "profile not found")
	} else if err != nil {
		return nil, WrapError(KindRemote, "failed to load profile", err)
	}
	return &user, nil
}

// UpdateProfile applies a partial update; unspecified fields are left
// untouched (merge, not replace).
func (g *Gateway) UpdateProfile(ctx context.Context, uid string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()
	_, err := g.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": uid}, bson.M{"$set": fields})
	if err != nil {
		return WrapError(KindRemote, "failed to update profile", err)
	}
	return nil
}

// UsernameTaken reports whether any profile already holds username.
// Best-effort only: usernames are intended-unique but not enforced by the
// store.
func (g *Gateway) UsernameTaken(ctx context.Context, username string) (bool, error) {
	n, err := g.db.Collection(usersCollection).CountDocuments(ctx,
		bson.M{"username": utils.NormalizeUsername(username)})
	if err != nil {
		return false, WrapError(KindRemote, "failed to check username", err)
	}
	return n > 0, nil
}

func (g *Gateway) attemptsExceeded(ctx context.Context, key string) (bool, error) {
	n, err := g.rdb.Get(ctx, key).Int()
	if err != nil {
		return false, err
	}
	return n >= ReauthMaxAttempts, nil
}

func (g *Gateway) recordFailedAttempt(ctx context.Context, key string) {
	// Fail open: attempt bookkeeping must never block a sign-in path outright.
	if err := g.rdb.Incr(ctx, key).Err(); err != nil {
		log.Printf("failed to record auth attempt: %v", err)
		return
	}
	g.rdb.Expire(ctx, key, ReauthWindow)
}
