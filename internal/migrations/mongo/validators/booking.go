package validators

import "go.mongodb.org/mongo-driver/bson"

var ProviderBookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"customer_name",
			"service_label",
			"price",
			"commission",
			"status",
			"scheduled_at",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"customer_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"customer_phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{1,14}$`,
			},

			"service_label": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"commission": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"in_progress",
					"completed",
					"cancelled",
				},
			},

			"scheduled_at": bson.M{"bsonType": "date"},
			"created_at":   bson.M{"bsonType": "date"},
			"updated_at":   bson.M{"bsonType": "date"},
		},
	},
}

var LedgerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "total_revenue", "total_commission", "completed_count"},
		"properties": bson.M{
			"total_revenue":    bson.M{"bsonType": []string{"double", "int", "long"}, "minimum": 0},
			"total_commission": bson.M{"bsonType": []string{"double", "int", "long"}, "minimum": 0},
			"completed_count":  bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
		},
	},
}
