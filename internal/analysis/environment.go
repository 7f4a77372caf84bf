package analysis

import (
	"sort"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

// set by Spark for every run
var autoGeneratedProperties = map[string]bool{
	"spark.app.id":      true,
	"spark.driver.host": true,
	"spark.driver.port": true,
}

type PropertyDiff struct {
	Key  string `json:"key"`
	App1 string `json:"app1_value"`
	App2 string `json:"app2_value"`
}

type PropertyComparison struct {
	Different []PropertyDiff          `json:"different"`
	App1Only  []sparkhistory.Property `json:"app1_only"`
	App2Only  []sparkhistory.Property `json:"app2_only"`
	Total     int                     `json:"total_different"`
}

type JVMInfo struct {
	App1 sparkhistory.RuntimeInfo `json:"app1"`
	App2 sparkhistory.RuntimeInfo `json:"app2"`
}

type EnvironmentSummary struct {
	SparkPropertiesDifferent  int  `json:"spark_properties_different"`
	SparkPropertiesApp1Only   int  `json:"spark_properties_app1_only"`
	SparkPropertiesApp2Only   int  `json:"spark_properties_app2_only"`
	SystemPropertiesDifferent int  `json:"system_properties_different"`
	JavaVersionDiffers        bool `json:"java_version_differs"`
	ScalaVersionDiffers       bool `json:"scala_version_differs"`
}

type EnvironmentComparison struct {
	SparkProperties  PropertyComparison `json:"spark_properties"`
	SystemProperties PropertyComparison `json:"system_properties"`
	JVMInfo          JVMInfo            `json:"jvm_info"`
	Summary          EnvironmentSummary `json:"summary"`
}

// CompareEnvironments diffs Spark and system properties of two runs. With
// filterAutoGenerated, properties that change on every run are ignored.
func CompareEnvironments(envA, envB sparkhistory.ApplicationEnvironmentInfo, filterAutoGenerated bool) *EnvironmentComparison {
	res := &EnvironmentComparison{
		SparkProperties:  compareProperties(envA.SparkProperties, envB.SparkProperties, filterAutoGenerated),
		SystemProperties: compareProperties(envA.SystemProperties, envB.SystemProperties, false),
		JVMInfo:          JVMInfo{App1: envA.Runtime, App2: envB.Runtime},
	}
	res.Summary = EnvironmentSummary{
		SparkPropertiesDifferent:  len(res.SparkProperties.Different),
		SparkPropertiesApp1Only:   len(res.SparkProperties.App1Only),
		SparkPropertiesApp2Only:   len(res.SparkProperties.App2Only),
		SystemPropertiesDifferent: len(res.SystemProperties.Different),
		JavaVersionDiffers:        envA.Runtime.JavaVersion != envB.Runtime.JavaVersion,
		ScalaVersionDiffers:       envA.Runtime.ScalaVersion != envB.Runtime.ScalaVersion,
	}
	return res
}

func propertyMap(props []sparkhistory.Property, filter bool) map[string]string {
	m := make(map[string]string, len(props))
	for _, p := range props {
		if filter && autoGeneratedProperties[p.Key()] {
			continue
		}
		m[p.Key()] = p.Value()
	}
	return m
}

func compareProperties(a, b []sparkhistory.Property, filter bool) PropertyComparison {
	ma, mb := propertyMap(a, filter), propertyMap(b, filter)
	res := PropertyComparison{
		Different: []PropertyDiff{},
		App1Only:  []sparkhistory.Property{},
		App2Only:  []sparkhistory.Property{},
	}
	for k, va := range ma {
		vb, ok := mb[k]
		switch {
		case !ok:
			res.App1Only = append(res.App1Only, sparkhistory.Property{k, va})
		case va != vb:
			res.Different = append(res.Different, PropertyDiff{Key: k, App1: va, App2: vb})
		}
	}
	for k, vb := range mb {
		if _, ok := ma[k]; !ok {
			res.App2Only = append(res.App2Only, sparkhistory.Property{k, vb})
		}
	}

	sort.Slice(res.Different, func(i, j int) bool { return res.Different[i].Key < res.Different[j].Key })
	sort.Slice(res.App1Only, func(i, j int) bool { return res.App1Only[i].Key() < res.App1Only[j].Key() })
	sort.Slice(res.App2Only, func(i, j int) bool { return res.App2Only[i].Key() < res.App2Only[j].Key() })
	res.Total = len(res.Different) + len(res.App1Only) + len(res.App2Only)
	return res
}
