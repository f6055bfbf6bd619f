package usage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owidCSV = `Entity,Code,Year,Individuals using the Internet (% of population)
Afghanistan,AFG,2010,5.0
Afghanistan,AFG,2015,10.0
World,OWID_WRL,2015,40.0
`

func TestLoad_RenamesVerboseUsageColumn(t *testing.T) {
	records, err := Load(context.Background(), strings.NewReader(owidCSV), Options{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	r := records[0]
	assert.Equal(t, "Afghanistan", r.Entity)
	assert.Equal(t, "AFG", r.Code)
	require.NotNil(t, r.Year)
	assert.Equal(t, 2010, *r.Year)
	require.NotNil(t, r.Usage)
	assert.InDelta(t, 5.0, *r.Usage, 1e-9)
	require.NotNil(t, r.Date)
	assert.Equal(t, time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC), *r.Date)

	assert.Equal(t, "OWID_WRL", records[2].Code)
	assert.InDelta(t, 40.0, *records[2].Usage, 1e-9)
}

func TestLoad_ColumnOrderIsHeaderDriven(t *testing.T) {
	input := "Year,Usage,Code,Entity\n2020,88.5,FRA,France\n"
	records, err := Load(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "France", records[0].Entity)
	assert.Equal(t, "FRA", records[0].Code)
	assert.Equal(t, 2020, *records[0].Year)
	assert.InDelta(t, 88.5, *records[0].Usage, 1e-9)
}

func TestLoad_CustomUsageColumn(t *testing.T) {
	input := "Entity,Code,Year,Share,Population\nChad,TCD,2019,10.4,15000000\n"
	records, err := Load(context.Background(), strings.NewReader(input), Options{UsageColumn: "Share"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 10.4, *records[0].Usage, 1e-9)
}

func TestLoad_SingleRemainingColumnIsUsage(t *testing.T) {
	input := "Entity,Code,Year,internet_pct\nChad,TCD,2019,10.4\n"
	records, err := Load(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.InDelta(t, 10.4, *records[0].Usage, 1e-9)
}

func TestLoad_AmbiguousUsageColumn(t *testing.T) {
	input := "Entity,Code,Year,a,b\nChad,TCD,2019,1,2\n"
	_, err := Load(context.Background(), strings.NewReader(input), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot identify usage column")
}

func TestLoad_MissingRequiredColumns(t *testing.T) {
	input := "Country,Year,Usage\nChad,2019,10.4\n"
	_, err := Load(context.Background(), strings.NewReader(input), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Code, Entity")
}

func TestLoad_MalformedValuesBecomeMissing(t *testing.T) {
	input := `Entity,Code,Year,Usage
Kosovo,,2012,n/a
Somewhere,XYZ,unknown,12.5
Short,SHT
Blank,BLK,2001,
NotANumber,NAN,2002,NaN
`
	records, err := Load(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, records, 5, "no row is dropped")

	assert.Equal(t, "", records[0].Code)
	assert.Nil(t, records[0].Usage)
	assert.Equal(t, 2012, *records[0].Year)

	assert.Nil(t, records[1].Year)
	assert.Nil(t, records[1].Date)
	assert.InDelta(t, 12.5, *records[1].Usage, 1e-9)

	assert.Equal(t, "SHT", records[2].Code)
	assert.Nil(t, records[2].Year)
	assert.Nil(t, records[2].Usage)

	assert.Nil(t, records[3].Usage)
	assert.Nil(t, records[4].Usage)
}

func TestLoad_StripsBOM(t *testing.T) {
	input := "\ufeffEntity,Code,Year,Usage\nChad,TCD,2019,10.4\n"
	records, err := Load(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Chad", records[0].Entity)
}

func TestLoad_HeaderOnly(t *testing.T) {
	records, err := Load(context.Background(), strings.NewReader("Entity,Code,Year,Usage\n"), Options{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoad_Empty(t *testing.T) {
	records, err := Load(context.Background(), strings.NewReader(""), Options{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoad_BrokenCSV(t *testing.T) {
	input := "Entity,Code,Year,Usage\n\"Chad,TCD,2019,10.4\n"
	_, err := Load(context.Background(), strings.NewReader(input), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage: read csv")
}

func TestLoad_HeaderOnlyStillValidatesColumns(t *testing.T) {
	_, err := Load(context.Background(), strings.NewReader("Country,Year\n"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}
