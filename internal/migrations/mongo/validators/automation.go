package validators

import "go.mongodb.org/mongo-driver/bson"

var AutomationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"appointment_id",
			"type",
			"trigger",
			"is_active",
			"execution_count",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType": "string",
			},

			"appointment_id": bson.M{
				"bsonType": "string",
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"CANCELLATION_NOTIFICATION",
					"REMINDER",
					"FOLLOW_UP",
				},
			},

			"trigger": bson.M{
				"bsonType": "string",
				"enum": []string{
					"ON_CANCELLATION",
					"ON_COMPLETION",
					"ON_REMINDER",
				},
			},

			"conditions": bson.M{
				"bsonType": []string{"object", "null"},
			},

			"actions": bson.M{
				"bsonType": []string{"object", "null"},
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"execution_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"last_triggered": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
