package env

// Condition is the normalized weather condition bucket.
type Condition string

const (
	ConditionSunny  Condition = "sunny"
	ConditionCloudy Condition = "cloudy"
	ConditionRainy  Condition = "rainy"
	ConditionSnowy  Condition = "snowy"
	ConditionFoggy  Condition = "foggy"
)

// Coordinates identifies a point on the globe.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeatherReading is the normalized current-weather shape served to clients.
// Produced fresh on every fetch and never persisted.
type WeatherReading struct {
	Temperature          int       `json:"temperature"`
	FeelsLike            int       `json:"feelsLike"`
	Humidity             int       `json:"humidity"`
	Condition            Condition `json:"condition"`
	ConditionDescription string    `json:"conditionDescription"`
	WindSpeed            int       `json:"windSpeed"`
	Pressure             int       `json:"pressure"`
	Visibility           int       `json:"visibility"`
	UVIndex              int       `json:"uvIndex"`
}

// AQIReading is the normalized air-quality shape, US AQI scale.
type AQIReading struct {
	Value    int    `json:"value"`
	Category string `json:"category"`
	PM25     int    `json:"pm25"`
	PM10     int    `json:"pm10"`
	Ozone    int    `json:"ozone"`
	NO2      int    `json:"no2"`
	SO2      int    `json:"so2"`
	CO       int    `json:"co"`
}

// Snapshot pairs the two readings for one fetch. Weather and AQI are either
// both present or the fetch failed as a whole.
type Snapshot struct {
	Weather WeatherReading `json:"weather"`
	AQI     AQIReading     `json:"aqi"`
}

// WeatherObservation is the raw current-weather payload from the provider.
type WeatherObservation struct {
	Temperature      float64
	ApparentTemp     float64
	RelativeHumidity float64
	WeatherCode      int
	WindSpeed        float64
	SurfacePressure  float64
	VisibilityMeters float64
	UVIndex          float64
}

// AirQualityObservation is the raw current air-quality payload, all pollutant
// concentrations in µg/m³.
type AirQualityObservation struct {
	USAQI          float64
	PM25           float64
	PM10           float64
	Ozone          float64
	NO2            float64
	SO2            float64
	CarbonMonoxide float64
}
