package core

import "dormcore/pkg/domain"

type (
	EntityType           = domain.EntityType
	SettlementStatus     = domain.SettlementStatus
	EvictionStatus       = domain.EvictionStatus
	Severity             = domain.Severity
	Base                 = domain.Base
	Dormitory            = domain.Dormitory
	Room                 = domain.Room
	Resident             = domain.Resident
	Child                = domain.Child
	Occupant             = domain.Occupant
	Document             = domain.Document
	DocumentOccupantLink = domain.DocumentOccupantLink
	Settlement           = domain.Settlement
	Eviction             = domain.Eviction
	Change               = domain.Change
	Action               = domain.Action
	Violation            = domain.Violation
	Result               = domain.Result
	Rule                 = domain.Rule
	RulesEngine          = domain.RulesEngine
	RuleViolationError   = domain.RuleViolationError
)

const (
	EntityDormitory    = domain.EntityDormitory
	EntityRoom         = domain.EntityRoom
	EntityResident     = domain.EntityResident
	EntityChild        = domain.EntityChild
	EntityDocument     = domain.EntityDocument
	EntityDocumentLink = domain.EntityDocumentLink
	EntitySettlement   = domain.EntitySettlement
	EntityEviction     = domain.EntityEviction
)

const (
	SettlementInitialized = domain.SettlementInitialized
	SettlementInProgress  = domain.SettlementInProgress
	SettlementCompleted   = domain.SettlementCompleted
	SettlementCancelled   = domain.SettlementCancelled
)

const (
	EvictionInitialized = domain.EvictionInitialized
	EvictionInProgress  = domain.EvictionInProgress
	EvictionExecuted    = domain.EvictionExecuted
	EvictionCancelled   = domain.EvictionCancelled
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
