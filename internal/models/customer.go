package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// MetadataNamespaceRazorpay holds provider linkage under customer metadata.
	MetadataNamespaceRazorpay = "razorpay"
	MetadataKeyCustomerID     = "rp_customer_id"

	// MetadataKeyLegacyID is the top-level key older integrations wrote.
	MetadataKeyLegacyID = "razorpay_id"
	MetadataKeyGSTIN    = "gstin"
)

type Customer struct {
	ID        string                 `json:"id" bson:"_id"`
	FirstName string                 `json:"first_name" bson:"first_name"`
	LastName  string                 `json:"last_name" bson:"last_name"`
	Email     string                 `json:"email" bson:"email" validate:"omitempty,email"`
	Phone     string                 `json:"phone" bson:"phone" validate:"omitempty,phone_number"`
	Addresses []Address              `json:"addresses" bson:"addresses"`
	Metadata  map[string]interface{} `json:"metadata" bson:"metadata"`
	CreatedAt time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" bson:"updated_at"`
}

type Address struct {
	ID          string `json:"id" bson:"id"`
	FirstName   string `json:"first_name" bson:"first_name"`
	LastName    string `json:"last_name" bson:"last_name"`
	Company     string `json:"company" bson:"company"`
	Address1    string `json:"address_1" bson:"address_1"`
	Address2    string `json:"address_2" bson:"address_2"`
	City        string `json:"city" bson:"city"`
	Province    string `json:"province" bson:"province"`
	PostalCode  string `json:"postal_code" bson:"postal_code"`
	CountryCode string `json:"country_code" bson:"country_code"`
	Phone       string `json:"phone" bson:"phone" validate:"omitempty,phone_number"`
}

// FullName returns "first last" trimmed.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// RazorpayCustomerID returns metadata.razorpay.rp_customer_id.
func (c *Customer) RazorpayCustomerID() string {
	if c == nil {
		return ""
	}
	ns := asMap(c.Metadata[MetadataNamespaceRazorpay])
	return stringValue(ns[MetadataKeyCustomerID])
}

func (c *Customer) LegacyRazorpayID() string {
	if c == nil {
		return ""
	}
	return stringValue(c.Metadata[MetadataKeyLegacyID])
}

func (c *Customer) GSTIN() string {
	if c == nil {
		return ""
	}
	return stringValue(c.Metadata[MetadataKeyGSTIN])
}

// AddressPhone returns the first address phone that is set.
func (c *Customer) AddressPhone() string {
	if c == nil {
		return ""
	}
	for _, addr := range c.Addresses {
		if addr.Phone != "" {
			return addr.Phone
		}
	}
	return ""
}

// SetMetadata writes key under namespace, creating the namespace if needed.
func (c *Customer) SetMetadata(namespace, key string, value interface{}) {
	if c.Metadata == nil {
		c.Metadata = map[string]interface{}{}
	}
	ns := asMap(c.Metadata[namespace])
	if ns == nil {
		ns = map[string]interface{}{}
	}
	ns[key] = value
	c.Metadata[namespace] = ns
}

// Metadata decoded from Mongo arrives as bson.M or bson.D depending on the
// registry, and as a plain map from JSON.
func asMap(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		return m
	case bson.M:
		return m
	case bson.D:
		out := make(map[string]interface{}, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out
	default:
		return nil
	}
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case primitive.ObjectID:
		return s.Hex()
	default:
		return ""
	}
}
