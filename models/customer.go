package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Customer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CustomerCode string             `bson:"customer_code" json:"customerCode"`
	Name         string             `bson:"name" json:"name" binding:"required"`
	Phone        string             `bson:"phone" json:"phone"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	Zone         string             `bson:"zone,omitempty" json:"zone,omitempty"`
	Province     string             `bson:"province,omitempty" json:"province,omitempty"`
	MedRepName   string             `bson:"med_rep_name,omitempty" json:"medRepName,omitempty"`
	CreatedAt    time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
}

type Zone struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name string             `bson:"name" json:"name" binding:"required"`
}

type Province struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name   string             `bson:"name" json:"name" binding:"required"`
	ZoneID string             `bson:"zoneid,omitempty" json:"zoneId,omitempty"`
}
