package validators

import "go.mongodb.org/mongo-driver/bson"

var CatalogValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"kind",
			"title",
			"date",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"kind": bson.M{
				"bsonType": "string",
				"enum":     []string{"event", "discovery"},
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 150,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 5000,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"active", "inactive", "draft"},
			},

			"rating": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
				"maximum":  5,
			},

			"participants": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"capacity": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"tags": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 20,
				"items": bson.M{
					"bsonType":  "string",
					"minLength": 1,
					"maxLength": 40,
				},
			},

			"date":       bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
