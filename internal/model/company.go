// Package model defines the records that flow through the ETL stages.
package model

import "time"

// SourceSystem tags every cleaned record with its upstream API.
const SourceSystem = "MARKETAUX_API"

// RawRecord is one company entity as supplied by the extract stage.
// An empty string means the field was missing upstream.
type RawRecord struct {
	Symbol   string `csv:"Symbol" json:"symbol"`
	Name     string `csv:"Company Name" json:"name"`
	Industry string `csv:"Industry" json:"industry"`
	Country  string `csv:"Country" json:"country"`
}

// CleanedRecord is the normalized, scored and fingerprinted form of a RawRecord.
// Symbol is the unique key.
type CleanedRecord struct {
	Symbol           string    `csv:"symbol" json:"symbol"`
	Ticker           string    `csv:"ticker" json:"ticker"`
	ExchangeCode     string    `csv:"exchange_code" json:"exchange_code"`
	ExchangeName     string    `csv:"exchange_name" json:"exchange_name"`
	CompanyName      string    `csv:"company_name" json:"company_name"`
	CompanyNameClean string    `csv:"company_name_clean" json:"company_name_clean"`
	Industry         string    `csv:"industry" json:"industry"`
	Country          string    `csv:"country" json:"country"`
	CountryCode      string    `csv:"country_code" json:"country_code"`
	CountryName      string    `csv:"country_name" json:"country_name"`
	Region           string    `csv:"region" json:"region"`
	TechCategory     string    `csv:"tech_category" json:"tech_category"`
	HasValidSymbol   bool      `csv:"has_valid_symbol" json:"has_valid_symbol"`
	HasValidName     bool      `csv:"has_valid_name" json:"has_valid_name"`
	HasValidCountry  bool      `csv:"has_valid_country" json:"has_valid_country"`
	HasValidIndustry bool      `csv:"has_valid_industry" json:"has_valid_industry"`
	QualityScore     float64   `csv:"quality_score" json:"quality_score"`
	IsComplete       bool      `csv:"is_complete" json:"is_complete"`
	SourceHash       string    `csv:"source_hash" json:"source_hash"`
	ContentHash      string    `csv:"content_hash" json:"content_hash"`
	ETLRunID         string    `csv:"etl_run_id" json:"etl_run_id"`
	ETLTimestamp     time.Time `csv:"etl_timestamp" json:"etl_timestamp"`
	ETLDate          string    `csv:"etl_date" json:"etl_date"`
	SourceSystem     string    `csv:"source_system" json:"source_system"`
	SourceFile       string    `csv:"source_file" json:"source_file"`
}

// PersistedRow is a CleanedRecord as stored in the warehouse table.
type PersistedRow struct {
	CleanedRecord
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
