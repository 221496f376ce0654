package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var RockTypes = []string{"igneous", "sedimentary", "metamorphic", "mineral", "fossil", "other"}

// ValidRockType reports whether t is one of RockTypes
func ValidRockType(t string) bool {
	for _, rt := range RockTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// GeoPoint is a GeoJSON point, coordinates are [longitude, latitude]
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(longitude, latitude float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

// ValidCoordinates reports whether longitude and latitude are within range
func ValidCoordinates(longitude, latitude float64) bool {
	return longitude >= -180 && longitude <= 180 && latitude >= -90 && latitude <= 90
}

// RockComment is a comment embedded in a rock post
type RockComment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Rock is a photo post of a rock
type Rock struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Photo       string               `bson:"photo" json:"photo"`
	RockType    string               `bson:"rockType" json:"rockType"`
	Location    GeoPoint             `bson:"location" json:"location"`
	Address     string               `bson:"address,omitempty" json:"address,omitempty"`
	Tags        []string             `bson:"tags" json:"tags"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments    []RockComment        `bson:"comments" json:"comments"`
	User        primitive.ObjectID   `bson:"user" json:"user"`
	IsPublic    bool                 `bson:"isPublic" json:"isPublic"`
	Counted     bool                 `bson:"counted" json:"-"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// NormalizeTags trims, lowercases and deduplicates tags keeping first-seen order
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
