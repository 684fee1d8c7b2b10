package validators

import "go.mongodb.org/mongo-driver/bson"

var OperatingHoursValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"provider_id",
			"provider_type",
			"schedule",
			"consultation_duration_minutes",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"provider_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"provider_type": bson.M{
				"enum": []string{"doctor", "lab"},
			},

			"schedule": bson.M{
				"bsonType": "array",
				"minItems": 7,
				"maxItems": 7,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"day", "is_open"},
					"properties": bson.M{
						"day": bson.M{
							"enum": []string{
								"sunday",
								"monday",
								"tuesday",
								"wednesday",
								"thursday",
								"friday",
								"saturday",
							},
						},
						"opening": bson.M{
							"bsonType": "string",
							"pattern":  "^$|^(([01][0-9]|2[0-3]):[0-5][0-9]|24:00)$",
						},
						"closing": bson.M{
							"bsonType": "string",
							"pattern":  "^$|^(([01][0-9]|2[0-3]):[0-5][0-9]|24:00)$",
						},
						"is_open": bson.M{
							"bsonType": "bool",
						},
					},
				},
			},

			"consultation_duration_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  5,
				"maximum":  480,
			},

			"time_zone": bson.M{
				"bsonType": "string",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
