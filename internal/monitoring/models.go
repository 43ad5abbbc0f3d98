package monitoring

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HealthThreshold is the ecosystem health score below which a Verified
// project is downgraded to Monitoring.
const HealthThreshold = 50.0

// WaterQuality holds one set of water measurements
type WaterQuality struct {
	PHLevel         float64 `json:"ph_level"`
	Salinity        float64 `json:"salinity"`
	DissolvedOxygen float64 `json:"dissolved_oxygen"`
	Turbidity       float64 `json:"turbidity"`
}

// SensorReading is one IoT sensor data point
type SensorReading struct {
	SensorID     string  `json:"sensor_id"`
	Timestamp    int64   `json:"timestamp"`
	CO2Flux      float64 `json:"co2_flux"`
	SoilMoisture float64 `json:"soil_moisture"`
	PHLevel      float64 `json:"ph_level"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
}

// Snapshot is one persisted monitoring submission for a project. Every
// submission is recorded, whatever the health score.
type Snapshot struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID            string         `gorm:"size:32;not null;index" json:"project_id"`
	Timestamp            time.Time      `json:"timestamp"`
	SatelliteImageryCID  string         `gorm:"size:46" json:"satellite_imagery_cid"`
	NDVIIndex            float64        `json:"ndvi_index"`
	WaterQuality         datatypes.JSON `json:"water_quality"`
	TemperatureData      datatypes.JSON `json:"temperature_data"`
	IoTSensorData        datatypes.JSON `json:"iot_sensor_data"`
	EcosystemHealthScore float64        `json:"ecosystem_health_score"`
	CreatedAt            time.Time      `json:"created_at"`
}

// SubmitRequest is an incoming monitoring submission
type SubmitRequest struct {
	ProjectID            string          `json:"project_id" binding:"required"`
	SatelliteImageryCID  string          `json:"satellite_imagery_cid"`
	NDVIIndex            float64         `json:"ndvi_index"`
	WaterQuality         WaterQuality    `json:"water_quality"`
	TemperatureData      []float64       `json:"temperature_data"`
	IoTSensorData        []SensorReading `json:"iot_sensor_data"`
	EcosystemHealthScore float64         `json:"ecosystem_health_score"`
}
