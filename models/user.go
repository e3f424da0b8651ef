package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email" json:"email"`
	Phone           string             `bson:"phone" json:"phone"`
	Password        string             `bson:"password,omitempty" json:"password,omitempty"`
	Role            string             `bson:"role" json:"role"`
	RecoveryCode    string             `bson:"recovery_code,omitempty" json:"recoveryCode,omitempty"`
	RecoveryExpires time.Time          `bson:"recovery_expires,omitempty" json:"recoveryExpires,omitempty"`
	CreatedAt       time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
}
