package auth

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/pkg/common"
)

const tokenTTL = 12 * time.Hour

var revokedBucket = []byte("revoked_tokens")

// Claims is the JWT payload for an authenticated session.
type Claims struct {
	Username string `json:"usr"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for the user.
func (s *Service) IssueToken(u *domain.SysUser) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        common.UUID(),
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", nil, errors.Wrap(err, "sign token")
	}
	return signed, claims, nil
}

// ParseToken validates signature, expiry and the revocation list.
func (s *Service) ParseToken(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, okm := t.Method.(*jwt.SigningMethodHMAC); !okm {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}
	revoked, err := s.tokens.IsRevoked(claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errors.New("auth: token revoked")
	}
	return claims, nil
}

// UserID returns the numeric subject of the claims.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenStore keeps revoked token ids in an embedded bbolt database so a
// logout survives process restarts until the token would expire anyway.
type TokenStore struct {
	db *bolt.DB
}

func NewTokenStore(path string) (*TokenStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open token store")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(revokedBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init token store")
	}
	return &TokenStore{db: db}, nil
}

func (t *TokenStore) Close() error {
	return t.db.Close()
}

func (t *TokenStore) Revoke(jti string, expiresAt time.Time) error {
	return t.db.Update(func(tx *bolt.Tx) error {
		val := make([]byte, 8)
		binary.BigEndian.PutUint64(val, uint64(expiresAt.Unix()))
		return tx.Bucket(revokedBucket).Put([]byte(jti), val)
	})
}

func (t *TokenStore) IsRevoked(jti string) (bool, error) {
	var revoked bool
	err := t.db.View(func(tx *bolt.Tx) error {
		revoked = tx.Bucket(revokedBucket).Get([]byte(jti)) != nil
		return nil
	})
	return revoked, err
}

// Purge drops revocation entries whose tokens have expired anyway.
func (t *TokenStore) Purge(now time.Time) error {
	cutoff := uint64(now.Unix())
	return t.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(revokedBucket)
		c := b.Cursor()
		var stale [][]byte
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if len(v) == 8 && binary.BigEndian.Uint64(v) < cutoff {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
