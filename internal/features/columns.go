// Package features defines the per-cluster feature vector table and the
// column scaling applied before alert-index optimisation.
package features

// Feature table column names.
const (
	ColCluster1      = "Cluster1"
	ColCluster2      = "Cluster2"
	ColAQuant        = "a_quant"
	ColMorto         = "morto"
	ColVivo          = "vivo"
	ColNormal        = "normal"
	ColEstranho      = "estranho"
	ColDoente        = "doente"
	ColAgressivo     = "agressivo"
	ColIntervalo     = "intervalo"
	ColDataIni       = "data_ini"
	ColDataFim       = "data_fim"
	ColExtensao      = "extensao"
	ColConfirmado    = "confirmado"
	ColNumReg        = "num_reg"
	ColFreqNumReg    = "freq_num_reg"
	ColFreqAQuant    = "freq_a_quant"
	ColFreqVivo      = "freq_vivo"
	ColFreqMorto     = "freq_morto"
	ColPercMortos    = "perc_mortos"
	ColPercVivos     = "perc_vivos"
	ColPercNormal    = "perc_normal"
	ColPercEstranho  = "perc_estranho"
	ColPercDoente    = "perc_doente"
	ColPercAgressivo = "perc_agressivo"
	ColGeocode       = "geocode"
	ColMUN           = "MUN"
	ColUF            = "UF"
)

// Header is the column order of a written feature table.
var Header = []string{
	ColCluster1, ColCluster2,
	ColAQuant, ColMorto, ColVivo,
	ColNormal, ColEstranho, ColDoente, ColAgressivo,
	ColIntervalo, ColDataIni, ColDataFim, ColExtensao,
	ColConfirmado, ColNumReg,
	ColFreqNumReg, ColFreqAQuant, ColFreqVivo, ColFreqMorto,
	ColPercMortos, ColPercVivos, ColPercNormal, ColPercEstranho, ColPercDoente, ColPercAgressivo,
	ColGeocode, ColMUN, ColUF,
}

// BaseFeatures are the numeric columns eligible for scaling, in a fixed order.
var BaseFeatures = []string{
	ColMorto, ColVivo, ColAQuant, ColIntervalo, ColNumReg, ColConfirmado,
	ColFreqNumReg, ColFreqMorto, ColFreqVivo, ColFreqAQuant,
	ColPercMortos, ColPercVivos, ColPercAgressivo, ColPercDoente, ColPercEstranho, ColPercNormal,
	ColExtensao,
}
