package constants

// Endpoint templates. The {tenant} segment is filled by the transport; the
// fmt verbs take the collection and then the identifiers.
const (
	PathAssets             = "/{tenant}/%s/assets"
	PathAsset              = "/{tenant}/%s/assets/%s"
	PathAssetVersions      = "/{tenant}/%s/assets/%s/versions"
	PathAssetReports       = "/{tenant}/%s/assets/%s/reports"
	PathAssetReport        = "/{tenant}/%s/assets/%s/reports/%s"
	PathAssetPayload       = "/{tenant}/%s/assets/%s/payload"
	PathAssetPayloadDesc   = "/{tenant}/%s/assets/%s/payload/description"
	PathAssetDescription   = "/{tenant}/%s/assets/%s/description"
	PathAssetMove          = "/{tenant}/%s/assets/%s/move"
	PathAssetCopy          = "/{tenant}/%s/assets/%s/copy"
	PathAssetLock          = "/{tenant}/%s/assets/%s/lock"
	PathAssetUnlock        = "/{tenant}/%s/assets/%s/unlock"
	PathAssetsEmpty        = "/{tenant}/%s/assets/empty"
	PathAssetsCopy         = "/{tenant}/%s/assets/copy"
	PathAssetsImport       = "/{tenant}/%s/assets/import"
	PathAssetsExport       = "/{tenant}/%s/assets/export"
	PathAssetsJob          = "/{tenant}/%s/assets/%s/%s"
	PathCalculationPattern = "/{tenant}/%s"
)

// Query parameters.
const (
	QueryLatest      = "latest"
	QueryAssetName   = "assetName"
	QueryPayloadMode = "assetPayloadMode"
)
